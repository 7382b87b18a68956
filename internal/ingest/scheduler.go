package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Enricher is the catalog enrichment step the scheduler runs after each
// sync. Implemented by catalog.Service.
type Enricher interface {
	EnrichPending(ctx context.Context, limit int) (int, error)
}

// DefaultEnrichBatch bounds how many tracks one cycle enriches, keeping
// nightly runs inside third-party rate limits.
const DefaultEnrichBatch = 100

// Scheduler runs sync + enrichment on a fixed interval. Errors are
// logged and the loop keeps going; it stops when the context is
// cancelled.
type Scheduler struct {
	sync        *Service
	enricher    Enricher
	interval    time.Duration
	enrichBatch int
	log         zerolog.Logger
}

// NewScheduler creates a scheduler. A nil enricher skips the enrichment
// step.
func NewScheduler(sync *Service, enricher Enricher, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		sync:        sync,
		enricher:    enricher,
		interval:    interval,
		enrichBatch: DefaultEnrichBatch,
		log:         log,
	}
}

// Run executes one cycle immediately, then once per interval until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if _, err := s.sync.Sync(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled sync failed")
	}

	if s.enricher == nil {
		return
	}
	enriched, err := s.enricher.EnrichPending(ctx, s.enrichBatch)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled enrichment failed")
		return
	}
	if enriched > 0 {
		s.log.Info().Int("tracks", enriched).Msg("catalog enrichment complete")
	}
}
