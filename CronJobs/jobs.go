package CronJobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ShiftAudit/Store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OrphanStore is what the checker needs from the database.
type OrphanStore interface {
	ListOrphanedSessions(ctx context.Context, answeredBefore time.Time) ([]Store.OrphanedSession, error)
	MarkNeedsReview(ctx context.Context, sessionID uuid.UUID) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error
}

// OrphanAlerter is told about the orphans found by each run.
type OrphanAlerter interface {
	NotifyOrphans(ctx context.Context, orphans []Store.OrphanedSession) error
}

type OrphanCheckerConfig struct {
	// Schedule is a six-field cron spec, seconds first.
	Schedule       string
	// MinAge is how long a session's newest answer must sit untouched.
	MinAge         time.Duration
	AutoRepair     bool
	RunImmediately bool
}

type CheckResult struct {
	Found    int
	Flagged  int
	Repaired int
}

// OrphanChecker periodically looks for sessions whose answers were saved
// but whose completion never landed, and flags them for review or, with
// AutoRepair, completes them at the time of their last answer.
type OrphanChecker struct {
	cronScheduler *cron.Cron
	store         OrphanStore
	alerter       OrphanAlerter
	log           *zap.Logger
	cfg           OrphanCheckerConfig
	mu            sync.Mutex
	now           func() time.Time
}

// NewOrphanChecker builds a checker. alerter may be nil.
func NewOrphanChecker(store OrphanStore, alerter OrphanAlerter, cfg OrphanCheckerConfig, log *zap.Logger) *OrphanChecker {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 0 * * * *"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrphanChecker{
		cronScheduler: cron.New(cron.WithSeconds()),
		store:         store,
		alerter:       alerter,
		log:           log,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Start schedules the check and starts the scheduler.
func (o *OrphanChecker) Start() error {
	if _, err := o.cronScheduler.AddFunc(o.cfg.Schedule, o.scheduledRun); err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	o.cronScheduler.Start()
	o.log.Info("orphan checker started",
		zap.String("schedule", o.cfg.Schedule),
		zap.Duration("min_age", o.cfg.MinAge),
		zap.Bool("auto_repair", o.cfg.AutoRepair))

	if o.cfg.RunImmediately {
		go o.scheduledRun()
	}
	return nil
}

// Stop waits for a running check to finish.
func (o *OrphanChecker) Stop() {
	if o.cronScheduler != nil {
		<-o.cronScheduler.Stop().Done()
		o.log.Info("orphan checker stopped")
	}
}

func (o *OrphanChecker) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := o.RunManualCheck(ctx); err != nil {
		o.log.Error("orphan check failed", zap.Error(err))
	}
}

// RunManualCheck runs one check now. Runs never overlap.
func (o *OrphanChecker) RunManualCheck(ctx context.Context) (CheckResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var res CheckResult
	orphans, err := o.store.ListOrphanedSessions(ctx, o.now().Add(-o.cfg.MinAge))
	if err != nil {
		return res, fmt.Errorf("listing orphaned sessions: %w", err)
	}
	res.Found = len(orphans)
	if res.Found == 0 {
		o.log.Debug("no orphaned sessions")
		return res, nil
	}

	var fresh []Store.OrphanedSession
	for _, orphan := range orphans {
		id := orphan.Session.ID
		if o.cfg.AutoRepair {
			if err := o.store.CompleteSession(ctx, id, orphan.LastAnswerAt); err != nil {
				o.log.Warn("repairing orphaned session failed", zap.String("session_id", id.String()), zap.Error(err))
				continue
			}
			res.Repaired++
			fresh = append(fresh, orphan)
			o.log.Info("orphaned session completed", zap.String("session_id", id.String()), zap.Time("completed_at", orphan.LastAnswerAt))
			continue
		}

		if orphan.Session.NeedsReview {
			continue
		}
		if err := o.store.MarkNeedsReview(ctx, id); err != nil {
			o.log.Warn("flagging orphaned session failed", zap.String("session_id", id.String()), zap.Error(err))
			continue
		}
		res.Flagged++
		fresh = append(fresh, orphan)
	}

	o.log.Info("orphan check finished",
		zap.Int("found", res.Found),
		zap.Int("flagged", res.Flagged),
		zap.Int("repaired", res.Repaired))

	if o.alerter != nil && len(fresh) > 0 {
		if err := o.alerter.NotifyOrphans(ctx, fresh); err != nil {
			o.log.Warn("orphan alert failed", zap.Error(err))
		}
	}
	return res, nil
}
