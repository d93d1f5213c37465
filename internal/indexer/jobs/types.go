package jobs

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type Repository interface {
	SyncJobs(ctx context.Context, specs []model.JobSpec) error
	ListJobs(ctx context.Context) ([]model.JobSummary, error)
	GetJob(ctx context.Context, jobID string) (model.Job, error)
	TransitionJob(ctx context.Context, jobID string, from []model.JobStatus, next model.JobStatus) (model.Job, error)
}
