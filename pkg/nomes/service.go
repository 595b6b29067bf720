package nomes

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/censo-nomes/pkg/ibge"
)

// Upstream is the subset of the IBGE client the engine consumes.
type Upstream interface {
	Name(ctx context.Context, nome string, q ibge.NameQuery) ([]ibge.NameRecord, error)
	Ranking(ctx context.Context, q ibge.RankingQuery) ([]ibge.RankingItem, error)
	Populacao(ctx context.Context) (int64, error)
}

// Options configures a Service.
type Options struct {
	// Delay is slept between per-name fetches inside OnlyA/OnlyB loops
	// to stay clear of upstream rate limits. Zero disables it.
	Delay  time.Duration
	Logger *slog.Logger
}

// Service runs the core queries against an Upstream. All calls are
// strictly sequential; the Service itself holds no mutable state.
type Service struct {
	api    Upstream
	delay  time.Duration
	logger *slog.Logger
}

// NewService creates a Service over api.
func NewService(api Upstream, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		api:    api,
		delay:  opts.Delay,
		logger: opts.Logger,
	}
}

// pause sleeps for the configured delay, returning early on cancellation.
func (s *Service) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.delay):
	}
}
