package bot

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// cacheSweepInterval controls how often expired cooldowns and restore markers are dropped.
const cacheSweepInterval = 10 * time.Minute

// Scheduler manages all background tasks.
type Scheduler struct {
	bot  *Bot
	done chan struct{}
	wg   sync.WaitGroup
}

func NewScheduler(bot *Bot) *Scheduler {
	return &Scheduler{
		bot:  bot,
		done: make(chan struct{}),
	}
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start() {
	s.bot.Restorer.Start(s.bot.ctx)

	s.wg.Add(1)
	go s.startCacheSweeper()
}

// Stop terminates all scheduled tasks and waits for a running restore pass.
func (s *Scheduler) Stop() {
	s.bot.Logger.Info("Stopping scheduler...")
	close(s.done)
	s.wg.Wait()
	s.bot.Restorer.Wait()
	s.bot.Logger.Info("Scheduler stopped.")
}

func (s *Scheduler) startCacheSweeper() {
	defer s.wg.Done()
	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cooldowns := s.bot.Cooldowns.Sweep()
			markers := s.bot.Reservations.Sweep()
			if cooldowns+markers > 0 {
				s.bot.Logger.Debug("Swept expired cache entries",
					zap.Int("cooldowns", cooldowns),
					zap.Int("restore_markers", markers))
			}
		case <-s.done:
			return
		}
	}
}
