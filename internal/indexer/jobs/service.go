// Package jobs manages the lifecycle of indexing jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"go.uber.org/zap"
)

// Service applies operator actions to persisted jobs. Every transition is a
// single conditional write, so concurrent actions on one job serialize in the
// database and at most one of two racing starts succeeds.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("jobs repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("jobs")}, nil
}

// SyncFromConfig creates configured jobs that do not exist yet and refreshes
// mode and snapshot of the rest. Runtime state is never reset.
func (s *Service) SyncFromConfig(ctx context.Context, specs []model.JobSpec) error {
	if err := s.repo.SyncJobs(ctx, specs); err != nil {
		return fmt.Errorf("sync jobs: %w", err)
	}
	s.logger.Info("jobs synced from config", zap.Int("count", len(specs)))
	return nil
}

// List returns all jobs ordered by id.
func (s *Service) List(ctx context.Context) ([]model.JobSummary, error) {
	return s.repo.ListJobs(ctx)
}

// Get returns one job or model.ErrJobNotFound.
func (s *Service) Get(ctx context.Context, jobID string) (model.Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

func (s *Service) Start(ctx context.Context, jobID string) (model.Job, error) {
	return s.Apply(ctx, jobID, ActionStart)
}

func (s *Service) Stop(ctx context.Context, jobID string) (model.Job, error) {
	return s.Apply(ctx, jobID, ActionStop)
}

func (s *Service) Pause(ctx context.Context, jobID string) (model.Job, error) {
	return s.Apply(ctx, jobID, ActionPause)
}

func (s *Service) Resume(ctx context.Context, jobID string) (model.Job, error) {
	return s.Apply(ctx, jobID, ActionResume)
}

func (s *Service) Retry(ctx context.Context, jobID string) (model.Job, error) {
	return s.Apply(ctx, jobID, ActionRetry)
}

// Apply performs action on the job. It returns model.ErrJobNotFound for an
// unknown id and *model.StateConflictError when the current status does not
// allow the action; in both cases nothing is written.
func (s *Service) Apply(ctx context.Context, jobID string, action Action) (model.Job, error) {
	from, to, err := sourceStates(action)
	if err != nil {
		return model.Job{}, err
	}

	job, err := s.repo.TransitionJob(ctx, jobID, from, to)
	if err != nil {
		var conflict *model.StateConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("job transition rejected",
				zap.String("job_id", jobID),
				zap.String("action", string(action)),
				zap.String("status", string(conflict.Status)),
			)
		}
		return model.Job{}, err
	}

	s.logger.Info("job transitioned",
		zap.String("job_id", jobID),
		zap.String("action", string(action)),
		zap.String("status", string(job.Status)),
	)
	return job, nil
}
