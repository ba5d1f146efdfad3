package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressReconcileJobName is the name of the progress reconciliation job
const ProgressReconcileJobName = "progress_reconcile"

// DefaultReconcileWindow is how far back the job looks for touched projects.
// Slightly more than the hourly cron interval to cover timing variations.
const DefaultReconcileWindow = 65 * time.Minute

// ProgressRefresher recomputes and persists the derived progress of one
// project tree. This interface lets the job call the project service without
// importing the service package directly.
type ProgressRefresher interface {
	RefreshProgress(ctx context.Context, projectID uuid.UUID) error
}

// TouchedProjectSource lists projects whose subtree changed after a point in
// time.
type TouchedProjectSource interface {
	ListIDsTouchedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// AuditLogCleaner removes audit log entries older than the retention window.
type AuditLogCleaner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

// ProgressReconcileJob recomputes the stored progress of recently touched
// projects. The request path already keeps progress current; the job repairs
// drift left behind by crashed requests or manual database edits, and
// piggybacks audit log retention on the same schedule.
type ProgressReconcileJob struct {
	projects      TouchedProjectSource
	refresher     ProgressRefresher
	auditCleaner  AuditLogCleaner
	retentionDays int
	logger        *zap.Logger
	timeout       time.Duration
}

// NewProgressReconcileJob creates a new reconciliation job. The auditCleaner
// is optional; retentionDays <= 0 disables audit cleanup entirely.
func NewProgressReconcileJob(
	projects TouchedProjectSource,
	refresher ProgressRefresher,
	auditCleaner AuditLogCleaner,
	retentionDays int,
	logger *zap.Logger,
	timeout time.Duration,
) *ProgressReconcileJob {
	return &ProgressReconcileJob{
		projects:      projects,
		refresher:     refresher,
		auditCleaner:  auditCleaner,
		retentionDays: retentionDays,
		logger:        logger,
		timeout:       timeout,
	}
}

// Run executes the reconciliation.
// This is called by the scheduler according to the cron expression.
func (j *ProgressReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting progress reconciliation job")

	refreshed, failed := j.reconcile(ctx, DefaultReconcileWindow)

	if j.auditCleaner != nil && j.retentionDays > 0 {
		removed, err := j.auditCleaner.CleanupOldLogs(ctx, j.retentionDays)
		if err != nil {
			j.logger.Error("audit log cleanup failed", zap.Error(err))
		} else if removed > 0 {
			j.logger.Info("audit log cleanup completed",
				zap.Int64("entries_removed", removed),
				zap.Int("retention_days", j.retentionDays))
		}
	}

	j.logger.Info("progress reconciliation job completed",
		zap.Int("projects_refreshed", refreshed),
		zap.Int("projects_failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RunStartupReconcile reconciles projects touched within the given window on
// startup. Returns the number of refreshed and failed projects.
func (j *ProgressReconcileJob) RunStartupReconcile(window time.Duration) (refreshed int, failed int) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting progress startup reconciliation",
		zap.Duration("window", window))

	refreshed, failed = j.reconcile(ctx, window)

	if refreshed > 0 || failed > 0 {
		j.logger.Info("progress startup reconciliation completed",
			zap.Int("projects_refreshed", refreshed),
			zap.Int("projects_failed", failed),
			zap.Duration("duration", time.Since(start)))
	}

	return refreshed, failed
}

func (j *ProgressReconcileJob) reconcile(ctx context.Context, window time.Duration) (refreshed int, failed int) {
	ids, err := j.projects.ListIDsTouchedSince(ctx, time.Now().Add(-window))
	if err != nil {
		j.logger.Error("failed to list touched projects", zap.Error(err))
		return 0, 0
	}

	for _, id := range ids {
		if err := j.refresher.RefreshProgress(ctx, id); err != nil {
			j.logger.Warn("failed to refresh project progress",
				zap.String("project_id", id.String()),
				zap.Error(err))
			failed++
			continue
		}
		refreshed++
	}

	return refreshed, failed
}

// RegisterProgressReconcileJob registers the reconciliation job with the
// scheduler. The cronExpr should be a valid cron expression (e.g.
// "0 15 * * * *" for 15 minutes past every hour). If runStartupReconcile is
// true a reconciliation over the default window runs immediately in a
// background goroutine so it doesn't block API startup.
func RegisterProgressReconcileJob(
	scheduler *Scheduler,
	projects TouchedProjectSource,
	refresher ProgressRefresher,
	auditCleaner AuditLogCleaner,
	retentionDays int,
	logger *zap.Logger,
	cronExpr string,
	timeout time.Duration,
	runStartupReconcile bool,
) error {
	job := NewProgressReconcileJob(projects, refresher, auditCleaner, retentionDays, logger, timeout)

	if runStartupReconcile {
		go job.RunStartupReconcile(DefaultReconcileWindow)
	}

	return scheduler.AddJob(ProgressReconcileJobName, cronExpr, job.Run)
}
