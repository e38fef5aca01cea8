// Package sweeper runs the background loop that returns expired seat holds
// to the available pool.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type holdReleaser interface {
	ReleaseExpiredHolds(ctx context.Context) (int, error)
}

type Sweeper struct {
	bookings holdReleaser
	interval time.Duration
	log      *zap.Logger
}

func New(bookings holdReleaser, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		log:      log.With(zap.String("component", "sweeper")),
	}
}

// Start blocks until the context is cancelled. Run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Hold sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Hold sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	released, err := s.bookings.ReleaseExpiredHolds(ctx)
	if err != nil {
		s.log.Error("Failed to sweep expired holds", zap.Error(err))
		return
	}
	if released > 0 {
		s.log.Info("Expired holds released", zap.Int("count", released))
	}
}
