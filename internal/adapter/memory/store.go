package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/retailpulse/storevisits/internal/domain"
)

// Store is an in-memory domain.JobStore. It backs tests and running the
// service without a database file; contents do not survive the process.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

var _ domain.JobStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{jobs: make(map[string]*domain.Job)}
}

// Create inserts a new job.
func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrJobExists
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// Get returns a copy of the job, so callers cannot mutate stored state.
func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return copyJob(job), nil
}

// Finalize commits the terminal status together with the accumulated
// results and error logs in one step under the write lock.
func (s *Store) Finalize(ctx context.Context, id string, status domain.JobStatus, results []domain.ImageResult, errorLogs []domain.ImageError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = status
	job.Results = slices.Clone(results)
	job.ErrorLogs = slices.Clone(errorLogs)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// FindOngoing returns copies of all jobs still in the ongoing state.
func (s *Store) FindOngoing(ctx context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []domain.Job
	for _, job := range s.jobs {
		if job.Status == domain.StatusOngoing {
			jobs = append(jobs, *copyJob(job))
		}
	}
	return jobs, nil
}

func copyJob(j *domain.Job) *domain.Job {
	c := *j
	c.Visits = slices.Clone(j.Visits)
	c.Results = slices.Clone(j.Results)
	c.ErrorLogs = slices.Clone(j.ErrorLogs)
	return &c
}
