package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"

	"go.uber.org/zap"
)

// Restorer periodically gives back the roles of expired demotions.
// At most one pass runs at a time; a tick that finds a pass in progress is skipped.
type Restorer struct {
	svc      *demotion.Service
	logger   *zap.Logger
	interval time.Duration

	running sync.Mutex
	wg      sync.WaitGroup
}

func NewRestorer(svc *demotion.Service, logger *zap.Logger, interval time.Duration) *Restorer {
	return &Restorer{
		svc:      svc,
		logger:   logger.Named("restorer"),
		interval: interval,
	}
}

// Start launches the restore loop. It stops when ctx is cancelled; Wait blocks until
// the last pass has finished.
func (r *Restorer) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()

		r.logger.Info("Demotion restorer started", zap.Duration("interval", r.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.wg.Add(1)
				go func() {
					defer r.wg.Done()
					r.RunOnce(ctx)
				}()
			}
		}
	}()
}

// Wait blocks until the loop and any running pass have returned.
func (r *Restorer) Wait() {
	r.wg.Wait()
}

// RunOnce restores every expired demotion. It returns false without doing anything if
// another pass is still running.
func (r *Restorer) RunOnce(ctx context.Context) bool {
	if !r.running.TryLock() {
		r.logger.Debug("Previous restore pass still running, skipping tick")
		return false
	}
	defer r.running.Unlock()

	records, err := r.svc.Expired(ctx)
	if err != nil {
		r.logger.Error("Failed to load expired demotions", zap.Error(err))
		return true
	}

	for _, record := range records {
		if ctx.Err() != nil {
			return true
		}
		if err := r.restore(ctx, record); err != nil {
			r.logger.Error("Failed to restore expired demotion",
				zap.Int64("demotion_id", record.ID),
				zap.String("guild_id", record.GuildID),
				zap.String("user_id", record.UserID),
				zap.String("role", record.RoleName),
				zap.Error(err))
		}
	}
	return true
}

// restore isolates one record so a panic cannot end the pass.
func (r *Restorer) restore(ctx context.Context, record model.DemotionRecord) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while restoring: %v", p)
		}
	}()
	return r.svc.AutoRestore(ctx, record)
}
