// Package scheduler periodically reloads shared rule sources.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"chat_filter/internal/filter"
)

// Source loads the current shared rule lists.
type Source interface {
	Load(ctx context.Context) (filter.Sources, error)
}

// Applier receives rule lists that differ from the last applied ones.
type Applier interface {
	ApplySources(ctx context.Context, src filter.Sources)
}

// Scheduler reloads rule sources on a fixed interval.
type Scheduler struct {
	source  Source
	applier Applier
	log     *slog.Logger
	tick    time.Duration

	last    filter.Sources
	applied bool
}

// New creates a Scheduler that reloads every interval.
func New(source Source, applier Applier, log *slog.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		source:  source,
		applier: applier,
		log:     log,
		tick:    interval,
	}
}

// SetTickInterval overrides the reload interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run reloads immediately and then on every tick, blocking until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.reload(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reload(ctx)
		}
	}
}

func (s *Scheduler) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	src, err := s.source.Load(ctx)
	if err != nil {
		s.log.Error("load rule sources", "error", err)
		return
	}
	if s.applied && src == s.last {
		s.log.Debug("rule sources unchanged")
		return
	}

	s.applier.ApplySources(ctx, src)
	s.last = src
	s.applied = true
	s.log.Info("applied rule sources",
		"names", countLines(src.Names),
		"patterns", countLines(src.Regex),
	)
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
