package domain

import (
	"context"
	"errors"
)

var (
	ErrMissingFields = errors.New("missing 'count' or 'visits' field")
	ErrCountMismatch = errors.New("'count' does not match number of visits")
	ErrMissingJobID  = errors.New("job id required")
	ErrJobNotFound   = errors.New("job not found")
	ErrJobExists     = errors.New("job already exists")
)

// JobService validates submissions, creates job records and answers
// status queries.
type JobService struct {
	store  JobStore
	runner JobRunner
}

// NewJobService creates a new JobService.
func NewJobService(store JobStore, runner JobRunner) *JobService {
	return &JobService{store: store, runner: runner}
}

// Submit validates the request, persists a new ongoing job and launches
// background processing. The caller gets the job back immediately and
// must poll Status for the outcome.
func (s *JobService) Submit(ctx context.Context, count int, visits []Visit) (*Job, error) {
	if visits == nil {
		return nil, ErrMissingFields
	}
	if count != len(visits) {
		return nil, ErrCountMismatch
	}

	job := NewJob(visits)
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	// Detached from the request: processing outlives the submission
	// response and has no return channel back to the caller.
	go s.runner.Run(context.WithoutCancel(ctx), job.ID, job.Visits)

	return job, nil
}

// Status returns the current snapshot of a job. While the job is still
// ongoing, results and error logs are empty.
func (s *JobService) Status(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, ErrMissingJobID
	}
	return s.store.Get(ctx, id)
}

// Resume relaunches processing for jobs still ongoing in the store,
// e.g. after a restart cut a previous run short. Returns the number of
// jobs relaunched.
func (s *JobService) Resume(ctx context.Context) (int, error) {
	jobs, err := s.store.FindOngoing(ctx)
	if err != nil {
		return 0, err
	}
	for _, job := range jobs {
		go s.runner.Run(context.WithoutCancel(ctx), job.ID, job.Visits)
	}
	return len(jobs), nil
}
