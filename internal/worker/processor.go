package worker

import (
	"context"
	"log"

	"github.com/retailpulse/storevisits/internal/domain"
)

// Processor walks a job's visits in submission order, fetching and
// measuring each image, and commits the outcome to the store in a
// single final update.
type Processor struct {
	store   domain.JobStore
	fetcher domain.ImageFetcher
	meter   domain.ImageMeter
}

var _ domain.JobRunner = (*Processor)(nil)

// New creates a new Processor.
func New(store domain.JobStore, fetcher domain.ImageFetcher, meter domain.ImageMeter) *Processor {
	return &Processor{store: store, fetcher: fetcher, meter: meter}
}

// Run processes every image of every visit. A failed fetch is recorded
// against the visit's store and never aborts the rest of the job; the
// job ends failed if any image failed, completed otherwise. No partial
// state is visible to readers before the final commit.
func (p *Processor) Run(ctx context.Context, jobID string, visits []domain.Visit) {
	if _, err := p.store.Get(ctx, jobID); err != nil {
		// Only happens if the store was tampered with externally.
		log.Printf("job %s: skipping run: %v", jobID, err)
		return
	}

	var results []domain.ImageResult
	var errorLogs []domain.ImageError

	for _, visit := range visits {
		for _, url := range visit.ImageURLs {
			if _, err := p.fetcher.Fetch(ctx, url); err != nil {
				errorLogs = append(errorLogs, domain.ImageError{
					StoreID: visit.StoreID,
					Error:   err.Error(),
				})
				continue
			}
			results = append(results, domain.ImageResult{
				StoreID:   visit.StoreID,
				ImageURL:  url,
				Perimeter: p.meter.Measure(ctx),
			})
		}
	}

	status := domain.StatusCompleted
	if len(errorLogs) > 0 {
		status = domain.StatusFailed
	}

	if err := p.store.Finalize(ctx, jobID, status, results, errorLogs); err != nil {
		log.Printf("job %s: finalize failed: %v", jobID, err)
		return
	}
	log.Printf("job %s: %s (%d results, %d errors)", jobID, status, len(results), len(errorLogs))
}
