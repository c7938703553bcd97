package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flight-delay-dashboard/internal/airports"
	"flight-delay-dashboard/internal/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler refreshes the dataset (and the airport directory when stale) on
// a fixed interval, so page renders mostly hit warm snapshots.
type Scheduler struct {
	dataset   *services.Dataset
	directory *airports.Directory
	logger    *zap.Logger
	interval  time.Duration

	cron    *cron.Cron
	entryID cron.EntryID

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewScheduler(dataset *services.Dataset, directory *airports.Directory, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		dataset:   dataset,
		directory: directory,
		logger:    logger,
		interval:  interval,
		cron:      cron.New(),
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runRefresh)
	if err != nil {
		return fmt.Errorf("scheduling refresh job: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))

	// Warm the snapshots immediately instead of waiting a full interval.
	go s.runRefresh()

	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.directory.RefreshIfStale(ctx)
	allState, todayState := s.dataset.Refresh(ctx)

	s.logger.Info("Scheduled refresh completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("all_state", string(allState)),
		zap.String("today_state", string(todayState)))
}

// ForceRun triggers an immediate refresh, used by the refresh endpoint.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering refresh")
	go s.runRefresh()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
	s.running = false
}

func (s *Scheduler) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
		"last_run": s.lastRun,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
