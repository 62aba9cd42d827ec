package jobs

import (
	"fmt"
	"time"

	"vehicle-rental/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the JobRunner on cron expressions with a seconds field, in UTC.
type Scheduler struct {
	cron *cron.Cron
	jobs *JobRunner
	log  *zap.Logger
}

func NewScheduler(jobRunner *JobRunner, cfg utils.JobsConfig, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
		log:  log.With(zap.String("component", "scheduler")),
	}

	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs(cfg utils.JobsConfig) error {
	entries := []struct {
		name string
		spec string
		job  func()
	}{
		{"MarkOverdueBookings", cfg.OverdueCron, s.jobs.MarkOverdueBookings},
		{"CleanExpiredSessions", cfg.SessionCleanupCron, s.jobs.CleanExpiredSessions},
	}

	for _, e := range entries {
		if e.spec == "" {
			s.log.Info("Job disabled", zap.String("job", e.name))
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.job); err != nil {
			return fmt.Errorf("register %s (%q): %w", e.name, e.spec, err)
		}
		s.log.Info("Job registered", zap.String("job", e.name), zap.String("spec", e.spec))
	}

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Cron scheduler stopped")
}
