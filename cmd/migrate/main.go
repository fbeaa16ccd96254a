package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"chat_filter/migrations"
)

type command struct {
	name  string
	about string
	run   func(db *sql.DB) error
}

var commands = []command{
	{"up", "Migrate the settings database to the latest version", func(db *sql.DB) error { return goose.Up(db, ".") }},
	{"up-one", "Migrate one version up", func(db *sql.DB) error { return goose.UpByOne(db, ".") }},
	{"down", "Roll back one version", func(db *sql.DB) error { return goose.Down(db, ".") }},
	{"redo", "Roll back and reapply the latest version", func(db *sql.DB) error { return goose.Redo(db, ".") }},
	{"status", "Show migration status", func(db *sql.DB) error { return goose.Status(db, ".") }},
	{"version", "Show current version", func(db *sql.DB) error { return goose.Version(db, ".") }},
	{"reset", "Roll back all migrations", func(db *sql.DB) error { return goose.Reset(db, ".") }},
}

var errUsage = errors.New("usage")

func main() {
	dbPath := flag.String("db", os.Getenv("DATABASE_PATH"), "path to the settings database (default ./data/bot.db)")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	path := *dbPath
	if path == "" {
		path = "./data/bot.db"
	}

	if err := run(path, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		slog.Error("migrate", "db", path, "error", err)
		os.Exit(1)
	}
}

// run executes the named command against the database at path.
func run(path string, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		return err
	}
	if err := cmd.run(db); err != nil {
		return fmt.Errorf("%s: %w", cmd.name, err)
	}
	return nil
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.about)
	}
}
