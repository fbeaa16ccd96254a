// Package rulesource loads shared rule lists from disk and from a remote URL.
package rulesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chat_filter/internal/filter"
)

// Rule list file names inside the rules directory.
const (
	PlayerListFile  = "playerlist.txt"
	MessageListFile = "messagelist.txt"
)

const maxBodySize = 1 << 20

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader reads name patterns and message patterns, one per line.
type Loader struct {
	dir     string
	url     string
	client  HTTPClient
	timeout time.Duration
}

// New creates a Loader. An empty dir or url disables that source.
func New(dir, url string, client HTTPClient) *Loader {
	return &Loader{
		dir:     dir,
		url:     url,
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Enabled reports whether any source is configured.
func (l *Loader) Enabled() bool {
	return l.dir != "" || l.url != ""
}

// Load reads every configured source. Missing files count as empty lists.
// The remote list contributes message patterns.
func (l *Loader) Load(ctx context.Context) (filter.Sources, error) {
	var src filter.Sources

	if l.dir != "" {
		names, err := readList(filepath.Join(l.dir, PlayerListFile))
		if err != nil {
			return filter.Sources{}, err
		}
		messages, err := readList(filepath.Join(l.dir, MessageListFile))
		if err != nil {
			return filter.Sources{}, err
		}
		src.Names = names
		src.Regex = messages
	}

	if l.url != "" {
		remote, err := l.fetch(ctx)
		if err != nil {
			return filter.Sources{}, err
		}
		src = src.Merge(filter.Sources{Regex: remote})
	}

	return src, nil
}

func (l *Loader) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ChatFilterBot/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return normalizeList(string(body)), nil
}

func readList(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-configured rules directory
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return normalizeList(string(data)), nil
}

// normalizeList trims lines and drops blank ones.
func normalizeList(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
