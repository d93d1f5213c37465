package postgres

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

func (s *RepositorySuite) syncJob(id string) {
	s.Require().NoError(s.repo.SyncJobs(s.testCtx, []model.JobSpec{{
		JobID:    id,
		Mode:     model.JobModeAllAddresses,
		Snapshot: json.RawMessage(`{"job_id":"` + id + `","enabled":true}`),
	}}))
}

func (s *RepositorySuite) TestSyncJobsPreservesRuntimeState() {
	s.syncJob("full-sync")

	_, err := s.repo.TransitionJob(s.testCtx, "full-sync", []model.JobStatus{model.JobCreated}, model.JobRunning)
	s.Require().NoError(err)
	_, err = s.pool.Exec(s.testCtx, `UPDATE jobs SET progress_height = 42 WHERE job_id = 'full-sync'`)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.SyncJobs(s.testCtx, []model.JobSpec{{
		JobID:    "full-sync",
		Mode:     model.JobModeAddressList,
		Snapshot: json.RawMessage(`{"job_id":"full-sync","enabled":false}`),
	}}))

	job, err := s.repo.GetJob(s.testCtx, "full-sync")
	s.Require().NoError(err)
	s.Equal(model.JobRunning, job.Status)
	s.Equal(int64(42), job.ProgressHeight)
	s.Equal(model.JobModeAddressList, job.Mode)
	s.JSONEq(`{"job_id":"full-sync","enabled":false}`, string(job.ConfigSnapshot))
	s.Equal(int64(1), s.countRows("jobs"))
}

func (s *RepositorySuite) TestListJobsOrderedByID() {
	s.syncJob("b-job")
	s.syncJob("a-job")

	items, err := s.repo.ListJobs(s.testCtx)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("a-job", items[0].JobID)
	s.Equal("b-job", items[1].JobID)
	s.Equal(model.JobCreated, items[0].Status)
	s.Nil(items[0].TipHeight)
}

func (s *RepositorySuite) TestGetJobNotFound() {
	_, err := s.repo.GetJob(s.testCtx, "missing")
	s.ErrorIs(err, model.ErrJobNotFound)
}

func (s *RepositorySuite) TestTransitionJobClassifiesFailures() {
	s.syncJob("full-sync")

	_, err := s.repo.TransitionJob(s.testCtx, "full-sync", []model.JobStatus{model.JobRunning}, model.JobPaused)
	var conflict *model.StateConflictError
	s.Require().True(errors.As(err, &conflict), "got %v", err)
	s.Equal(model.JobCreated, conflict.Status)

	_, err = s.repo.TransitionJob(s.testCtx, "missing", []model.JobStatus{model.JobCreated}, model.JobRunning)
	s.ErrorIs(err, model.ErrJobNotFound)

	job, err := s.repo.GetJob(s.testCtx, "full-sync")
	s.Require().NoError(err)
	s.Equal(model.JobCreated, job.Status)
}

func (s *RepositorySuite) TestConcurrentStartHasOneWinner() {
	s.syncJob("full-sync")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.repo.TransitionJob(s.testCtx, "full-sync", []model.JobStatus{model.JobCreated}, model.JobRunning)

			mu.Lock()
			defer mu.Unlock()
			var conflict *model.StateConflictError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &conflict):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(attempts-1, conflicts)
}
