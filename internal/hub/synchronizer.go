package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neuro-synapse/bridged/internal/mailbox"
	"github.com/neuro-synapse/bridged/internal/observability"
)

// Synchronizer pushes full inbox snapshots to every registered client: on a
// fixed interval, and immediately when kicked after a mailbox-mutating
// action. The inbox view is global, not session-scoped.
type Synchronizer struct {
	store    mailbox.Store
	registry *Registry
	interval time.Duration
	limit    int
	kick     chan struct{}
}

// NewSynchronizer constructs an inbox synchronizer; zero interval/limit fall
// back to the 5s/30-summary defaults.
func NewSynchronizer(store mailbox.Store, registry *Registry, interval time.Duration, limit int) *Synchronizer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if limit <= 0 {
		limit = 30
	}
	return &Synchronizer{
		store:    store,
		registry: registry,
		interval: interval,
		limit:    limit,
		kick:     make(chan struct{}, 1),
	}
}

// Run drives the periodic snapshot loop until ctx is done. A store failure
// skips the tick; the next tick is the retry.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", s.interval).Int("limit", s.limit).Msg("hub.sync loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hub.sync loop stopped")
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-s.kick:
			s.syncOnce(ctx)
		}
	}
}

// Kick requests an immediate out-of-band snapshot broadcast. Coalesces:
// a kick while one is already pending is a no-op.
func (s *Synchronizer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// SnapshotNow fetches one snapshot on demand for an explicit client request.
func (s *Synchronizer) SnapshotNow(ctx context.Context) ([]mailbox.Summary, error) {
	summaries, err := s.store.Recent(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return summaries, nil
}

// syncOnce fetches a snapshot and fans it out to all registered clients.
func (s *Synchronizer) syncOnce(ctx context.Context) {
	summaries, err := s.store.Recent(ctx, s.limit)
	if err != nil {
		observability.RecordInboxSync("store_error")
		log.Warn().Err(err).Msg("hub.sync tick skipped, store unavailable")
		return
	}

	frame := InboxUpdateFrame{Type: FrameInboxUpdate, Emails: summaries}
	delivered := 0
	for _, client := range s.registry.All() {
		if err := client.Send(frame); err != nil {
			observability.RecordBroadcastFailure()
			log.Warn().Str("client_id", client.ID).Err(err).Msg("hub.sync send failed")
			continue
		}
		observability.RecordFrame("out", FrameInboxUpdate)
		delivered++
	}
	observability.RecordInboxSync("ok")
	log.Debug().Int("emails", len(summaries)).Int("delivered", delivered).Msg("hub.sync cycle complete")
}
