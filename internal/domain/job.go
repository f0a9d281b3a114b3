package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	StatusOngoing   JobStatus = "ongoing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Visit bundles one store's image URLs for processing.
type Visit struct {
	StoreID   string   `json:"store_id"`
	ImageURLs []string `json:"image_url"`
}

// ImageResult is the measurement recorded for a successfully fetched image.
type ImageResult struct {
	StoreID   string `json:"store_id"`
	ImageURL  string `json:"image_url"`
	Perimeter int    `json:"perimeter"`
}

// ImageError records a failed image fetch against its store.
type ImageError struct {
	StoreID string `json:"store_id"`
	Error   string `json:"error"`
}

// Job tracks a batch of visits, its lifecycle status and the per-image
// outcomes accumulated by background processing. Results and ErrorLogs
// stay empty until processing finalizes the job in one update.
type Job struct {
	ID        string
	Visits    []Visit
	Status    JobStatus
	Results   []ImageResult
	ErrorLogs []ImageError
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJob creates an ongoing job for the given visits with a fresh id.
func NewJob(visits []Visit) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Visits:    visits,
		Status:    StatusOngoing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal returns true once the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// ImageCount returns the total number of images across all visits.
func (j *Job) ImageCount() int {
	n := 0
	for _, v := range j.Visits {
		n += len(v.ImageURLs)
	}
	return n
}
