package httpapi

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/jobs"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	JobService interface {
		List(ctx context.Context) ([]model.JobSummary, error)
		Get(ctx context.Context, jobID string) (model.Job, error)
		Apply(ctx context.Context, jobID string, action jobs.Action) (model.Job, error)
	}
	Metrics interface {
		ObserveRequest(route string, code int, started time.Time)
	}
)
