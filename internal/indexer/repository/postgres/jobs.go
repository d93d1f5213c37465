package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"github.com/jackc/pgx/v5"
)

const syncJobQuery = `
INSERT INTO jobs (
	job_id,
	mode,
	status,
	progress_height,
	config_snapshot,
	updated_at
) VALUES ($1, $2, 'created', 0, $3, NOW())
ON CONFLICT (job_id) DO UPDATE SET
	mode = EXCLUDED.mode,
	config_snapshot = EXCLUDED.config_snapshot,
	updated_at = NOW()`

const listJobsQuery = `
SELECT job_id, mode, status, progress_height, updated_at, last_error
FROM jobs
ORDER BY job_id`

const getJobQuery = `
SELECT job_id, mode, status, progress_height, updated_at, last_error, config_snapshot
FROM jobs
WHERE job_id = $1`

const transitionJobQuery = `
UPDATE jobs
SET status = $2, updated_at = NOW()
WHERE job_id = $1 AND status = ANY($3)
RETURNING job_id, mode, status, progress_height, updated_at, last_error, config_snapshot`

const jobStatusQuery = `SELECT status FROM jobs WHERE job_id = $1`

// SyncJobs inserts missing jobs and refreshes mode and snapshot of existing ones.
// Status and progress of existing jobs are never touched.
func (r *Repository) SyncJobs(ctx context.Context, specs []model.JobSpec) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("sync_jobs", err, started)
	}()

	for _, spec := range specs {
		snapshot := spec.Snapshot
		if len(snapshot) == 0 {
			snapshot = emptyDocument
		}
		if _, err = r.db.Exec(ctx, syncJobQuery, spec.JobID, string(spec.Mode), snapshot); err != nil {
			return &model.StorageError{Op: "sync job " + spec.JobID, Err: err}
		}
	}
	return nil
}

// ListJobs returns job summaries ordered by job id.
func (r *Repository) ListJobs(ctx context.Context) (items []model.JobSummary, err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("list_jobs", err, started)
	}()

	rows, err := r.db.Query(ctx, listJobsQuery)
	if err != nil {
		return nil, &model.StorageError{Op: "list jobs", Err: err}
	}
	defer rows.Close()

	items = make([]model.JobSummary, 0)
	for rows.Next() {
		var (
			item   model.JobSummary
			mode   string
			status string
		)
		if err = rows.Scan(&item.JobID, &mode, &status, &item.ProgressHeight, &item.UpdatedAt, &item.LastError); err != nil {
			return nil, &model.StorageError{Op: "scan job", Err: err}
		}
		item.Mode = model.JobMode(mode)
		item.Status = model.JobStatus(status)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, &model.StorageError{Op: "list jobs", Err: err}
	}
	return items, nil
}

// GetJob returns the job or model.ErrJobNotFound.
func (r *Repository) GetJob(ctx context.Context, jobID string) (job model.Job, err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("get_job", err, started)
	}()

	job, err = scanJob(r.db.QueryRow(ctx, getJobQuery, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, model.ErrJobNotFound
	}
	if err != nil {
		return model.Job{}, &model.StorageError{Op: "get job " + jobID, Err: err}
	}
	return job, nil
}

// TransitionJob moves a job to next only when its current status is in from.
// The check and the write are one statement, so concurrent callers cannot both win.
// When no row changes the current status is read once to tell a missing job
// (model.ErrJobNotFound) from an illegal transition (*model.StateConflictError).
func (r *Repository) TransitionJob(
	ctx context.Context,
	jobID string,
	from []model.JobStatus,
	next model.JobStatus,
) (job model.Job, err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("transition_job", err, started)
	}()

	allowed := make([]string, 0, len(from))
	for _, status := range from {
		allowed = append(allowed, string(status))
	}

	job, err = scanJob(r.db.QueryRow(ctx, transitionJobQuery, jobID, string(next), allowed))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Job{}, &model.StorageError{Op: "transition job " + jobID, Err: err}
	}

	var current string
	err = r.db.QueryRow(ctx, jobStatusQuery, jobID).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.Job{}, model.ErrJobNotFound
	case err != nil:
		return model.Job{}, &model.StorageError{Op: "read job status " + jobID, Err: err}
	}
	return model.Job{}, &model.StateConflictError{Status: model.JobStatus(current)}
}

func scanJob(row pgx.Row) (model.Job, error) {
	var (
		job    model.Job
		mode   string
		status string
	)
	if err := row.Scan(
		&job.JobID,
		&mode,
		&status,
		&job.ProgressHeight,
		&job.UpdatedAt,
		&job.LastError,
		&job.ConfigSnapshot,
	); err != nil {
		return model.Job{}, fmt.Errorf("scan job: %w", err)
	}
	job.Mode = model.JobMode(mode)
	job.Status = model.JobStatus(status)
	return job, nil
}
