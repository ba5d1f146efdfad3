package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeProjectSource struct {
	ids []uuid.UUID
	err error
}

func (f *fakeProjectSource) ListIDsTouchedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type fakeRefresher struct {
	refreshed []uuid.UUID
	failOn    map[uuid.UUID]bool
}

func (f *fakeRefresher) RefreshProgress(ctx context.Context, projectID uuid.UUID) error {
	if f.failOn[projectID] {
		return errors.New("refresh failed")
	}
	f.refreshed = append(f.refreshed, projectID)
	return nil
}

type fakeAuditCleaner struct {
	calls         int
	retentionDays int
	removed       int64
	err           error
}

func (f *fakeAuditCleaner) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	f.calls++
	f.retentionDays = retentionDays
	return f.removed, f.err
}

func TestProgressReconcileJob_RefreshesTouchedProjects(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	source := &fakeProjectSource{ids: []uuid.UUID{first, second}}
	refresher := &fakeRefresher{}

	job := NewProgressReconcileJob(source, refresher, nil, 0, zap.NewNop(), time.Minute)
	refreshed, failed := job.RunStartupReconcile(time.Hour)

	assert.Equal(t, 2, refreshed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []uuid.UUID{first, second}, refresher.refreshed)
}

func TestProgressReconcileJob_CountsFailures(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	source := &fakeProjectSource{ids: []uuid.UUID{good, bad}}
	refresher := &fakeRefresher{failOn: map[uuid.UUID]bool{bad: true}}

	job := NewProgressReconcileJob(source, refresher, nil, 0, zap.NewNop(), time.Minute)
	refreshed, failed := job.RunStartupReconcile(time.Hour)

	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []uuid.UUID{good}, refresher.refreshed)
}

func TestProgressReconcileJob_ListErrorRefreshesNothing(t *testing.T) {
	source := &fakeProjectSource{err: errors.New("database unavailable")}
	refresher := &fakeRefresher{}

	job := NewProgressReconcileJob(source, refresher, nil, 0, zap.NewNop(), time.Minute)
	refreshed, failed := job.RunStartupReconcile(time.Hour)

	assert.Equal(t, 0, refreshed)
	assert.Equal(t, 0, failed)
	assert.Empty(t, refresher.refreshed)
}

func TestProgressReconcileJob_RunsAuditCleanup(t *testing.T) {
	source := &fakeProjectSource{}
	refresher := &fakeRefresher{}
	cleaner := &fakeAuditCleaner{removed: 42}

	job := NewProgressReconcileJob(source, refresher, cleaner, 90, zap.NewNop(), time.Minute)
	job.Run()

	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, 90, cleaner.retentionDays)
}

func TestProgressReconcileJob_SkipsAuditCleanupWhenDisabled(t *testing.T) {
	source := &fakeProjectSource{}
	refresher := &fakeRefresher{}
	cleaner := &fakeAuditCleaner{}

	// retentionDays <= 0 disables cleanup even with a cleaner wired
	job := NewProgressReconcileJob(source, refresher, cleaner, 0, zap.NewNop(), time.Minute)
	job.Run()

	assert.Equal(t, 0, cleaner.calls)
}

func TestScheduler_AddAndRemoveJob(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())

	source := &fakeProjectSource{}
	refresher := &fakeRefresher{}
	job := NewProgressReconcileJob(source, refresher, nil, 0, zap.NewNop(), time.Minute)

	err := scheduler.AddJob(ProgressReconcileJobName, "0 15 * * * *", job.Run)
	assert.NoError(t, err)
	assert.Contains(t, scheduler.GetJobNames(), ProgressReconcileJobName)

	scheduler.RemoveJob(ProgressReconcileJobName)
	assert.NotContains(t, scheduler.GetJobNames(), ProgressReconcileJobName)

	err = scheduler.AddJob("bad_job", "not a cron expr", job.Run)
	assert.Error(t, err)
}
