package jobs

import (
	"context"
	"time"

	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/usecase"

	"go.uber.org/zap"
)

const (
	jobTimeout       = 2 * time.Minute
	sessionRetention = 7 * 24 * time.Hour
)

// JobRunner holds the work run on a schedule.
type JobRunner struct {
	bookings usecase.BookingService
	sessions repository.SessionRepository
	now      func() time.Time
	log      *zap.Logger
}

func NewJobRunner(bookings usecase.BookingService, sessions repository.SessionRepository, log *zap.Logger) *JobRunner {
	return &JobRunner{
		bookings: bookings,
		sessions: sessions,
		now:      time.Now,
		log:      log.With(zap.String("component", "jobs")),
	}
}

// runWithRecovery bounds a job with a timeout and keeps a panic from taking
// the scheduler down.
func (jr *JobRunner) runWithRecovery(jobName string, job func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			jr.log.Error("Job panicked", zap.String("job", jobName), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := jr.now()
	if err := job(ctx); err != nil {
		jr.log.Error("Job failed", zap.String("job", jobName), zap.Error(err))
		return
	}
	jr.log.Debug("Job completed", zap.String("job", jobName), zap.Duration("took", jr.now().Sub(start)))
}

// MarkOverdueBookings moves ONGOING bookings past their end to OVERDUE.
func (jr *JobRunner) MarkOverdueBookings() {
	jr.runWithRecovery("MarkOverdueBookings", func(ctx context.Context) error {
		marked, err := jr.bookings.MarkOverdue(ctx, jr.now().UTC())
		if err != nil {
			return err
		}
		if marked > 0 {
			jr.log.Info("Marked bookings as overdue", zap.Int("count", marked))
		}
		return nil
	})
}

// CleanExpiredSessions drops staff sessions expired for more than a week.
func (jr *JobRunner) CleanExpiredSessions() {
	jr.runWithRecovery("CleanExpiredSessions", func(ctx context.Context) error {
		removed, err := jr.sessions.CleanExpiredSessions(ctx, jr.now().Add(-sessionRetention))
		if err != nil {
			return err
		}
		jr.log.Info("Cleaned expired sessions", zap.Int64("count", removed))
		return nil
	})
}
