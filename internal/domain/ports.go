package domain

import "context"

// JobStore is the driven port for job persistence. Finalize must be
// atomic with respect to the status/results/errorLogs triple: readers
// interleaving with the single writer never see a partial update.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Finalize(ctx context.Context, id string, status JobStatus, results []ImageResult, errorLogs []ImageError) error
	FindOngoing(ctx context.Context) ([]Job, error)
}

// ImageFetcher retrieves the raw bytes for an image URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageMeter produces the perimeter measurement for a fetched image.
type ImageMeter interface {
	Measure(ctx context.Context) int
}

// JobRunner processes a job's visits in the background and commits the
// outcome to the store.
type JobRunner interface {
	Run(ctx context.Context, jobID string, visits []Visit)
}
