package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically reaps expired records that nobody has read.
// It is an optional extra: the read path enforces expiry on its own.
type Sweeper struct {
	files    FileService
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// maxRoundsPerSweep bounds one tick, so records that keep failing to delete
// cannot pin the sweeper in a loop.
const maxRoundsPerSweep = 10

func NewSweeper(files FileService, interval time.Duration, batch int, logger *slog.Logger) *Sweeper {
	if batch <= 0 {
		batch = DefaultSweepSize
	}
	return &Sweeper{
		files:    files,
		interval: interval,
		batch:    batch,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", slog.Duration("interval", s.interval), slog.Int("batch", s.batch))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce reaps expired records in batches until a short batch, an error,
// or maxRoundsPerSweep batches.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	total := 0
	for round := 0; round < maxRoundsPerSweep; round++ {
		n, err := s.files.ReapExpired(ctx, s.batch)
		total += n
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
			break
		}
		if n < s.batch {
			break
		}
	}
	if total > 0 {
		s.logger.Info("sweep finished", slog.Int("reaped", total))
	}
	return total
}
