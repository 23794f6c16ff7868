package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetentionWorker applies the retention policy on a fixed interval as the
// system actor.
type RetentionWorker struct {
	patients *PatientService
	days     int
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRetentionWorker(patients *PatientService, days int, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	return &RetentionWorker{
		patients: patients,
		days:     days,
		interval: interval,
		logger:   logger.Named("retention"),
	}
}

// Start launches the sweep loop. It does nothing when the interval is not
// positive.
func (w *RetentionWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("retention sweep disabled")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info("retention sweep started",
			zap.Duration("interval", w.interval),
			zap.Int("days", w.days))
		for {
			select {
			case <-ticker.C:
				w.sweep(ctx)
			case <-ctx.Done():
				w.logger.Info("retention sweep stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running sweep to finish.
func (w *RetentionWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	deleted, err := w.patients.ApplyRetention(ctx, SystemActor, w.days)
	if err != nil {
		w.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.logger.Info("retention sweep removed records", zap.Int64("deleted", deleted))
	}
}
