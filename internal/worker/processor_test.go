package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/retailpulse/storevisits/internal/adapter/memory"
	"github.com/retailpulse/storevisits/internal/domain"
)

// stubFetcher fails for the URLs listed in fail, succeeds otherwise.
type stubFetcher struct {
	fail map[string]bool
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.fail[url] {
		return nil, fmt.Errorf("image download failed for %s: status 500", url)
	}
	return []byte("image-bytes"), nil
}

// stubMeter returns a fixed perimeter with no delay.
type stubMeter struct {
	perimeter int
}

func (m *stubMeter) Measure(ctx context.Context) int {
	return m.perimeter
}

func setup(t *testing.T, fail map[string]bool) (*memory.Store, *Processor) {
	t.Helper()
	store := memory.New()
	proc := New(store, &stubFetcher{fail: fail}, &stubMeter{perimeter: 840})
	return store, proc
}

func createJob(t *testing.T, store *memory.Store, visits []domain.Visit) *domain.Job {
	t.Helper()
	job := domain.NewJob(visits)
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return job
}

func TestProcessor_Run_AllSuccess(t *testing.T) {
	store, proc := setup(t, nil)
	visits := []domain.Visit{
		{StoreID: "S1", ImageURLs: []string{"u1", "u2"}},
		{StoreID: "S2", ImageURLs: []string{"u3"}},
	}
	job := createJob(t, store, visits)

	proc.Run(context.Background(), job.ID, visits)

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Status != domain.StatusCompleted {
		t.Errorf("status = %q, want %q", final.Status, domain.StatusCompleted)
	}
	if len(final.Results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(final.Results))
	}
	if len(final.ErrorLogs) != 0 {
		t.Errorf("len(errorLogs) = %d, want 0", len(final.ErrorLogs))
	}

	// Accumulation order matches submission order.
	wantPairs := []struct{ storeID, url string }{
		{"S1", "u1"}, {"S1", "u2"}, {"S2", "u3"},
	}
	for i, want := range wantPairs {
		got := final.Results[i]
		if got.StoreID != want.storeID || got.ImageURL != want.url {
			t.Errorf("results[%d] = (%s, %s), want (%s, %s)", i, got.StoreID, got.ImageURL, want.storeID, want.url)
		}
		if got.Perimeter != 840 {
			t.Errorf("results[%d].Perimeter = %d, want 840", i, got.Perimeter)
		}
	}
}

func TestProcessor_Run_PartialFailure(t *testing.T) {
	store, proc := setup(t, map[string]bool{"u2": true, "u4": true})
	visits := []domain.Visit{
		{StoreID: "S1", ImageURLs: []string{"u1", "u2"}},
		{StoreID: "S2", ImageURLs: []string{"u3", "u4"}},
	}
	job := createJob(t, store, visits)

	proc.Run(context.Background(), job.ID, visits)

	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Status != domain.StatusFailed {
		t.Errorf("status = %q, want %q", final.Status, domain.StatusFailed)
	}
	if len(final.Results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(final.Results))
	}
	if len(final.ErrorLogs) != 2 {
		t.Errorf("len(errorLogs) = %d, want 2", len(final.ErrorLogs))
	}
	// Every image accounted for exactly once across the two sequences.
	if total := len(final.Results) + len(final.ErrorLogs); total != job.ImageCount() {
		t.Errorf("results+errors = %d, want %d", total, job.ImageCount())
	}

	if final.Results[0].ImageURL != "u1" || final.Results[1].ImageURL != "u3" {
		t.Errorf("result order = [%s, %s], want [u1, u3]", final.Results[0].ImageURL, final.Results[1].ImageURL)
	}
	if final.ErrorLogs[0].StoreID != "S1" || final.ErrorLogs[1].StoreID != "S2" {
		t.Errorf("error order = [%s, %s], want [S1, S2]", final.ErrorLogs[0].StoreID, final.ErrorLogs[1].StoreID)
	}
	if final.ErrorLogs[0].Error == "" {
		t.Error("error log has empty message")
	}
}

func TestProcessor_Run_AllFail(t *testing.T) {
	store, proc := setup(t, map[string]bool{"u1": true, "u2": true})
	visits := []domain.Visit{{StoreID: "S1", ImageURLs: []string{"u1", "u2"}}}
	job := createJob(t, store, visits)

	proc.Run(context.Background(), job.ID, visits)

	final, _ := store.Get(context.Background(), job.ID)
	if final.Status != domain.StatusFailed {
		t.Errorf("status = %q, want %q", final.Status, domain.StatusFailed)
	}
	if len(final.Results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(final.Results))
	}
	if len(final.ErrorLogs) != 2 {
		t.Errorf("len(errorLogs) = %d, want 2", len(final.ErrorLogs))
	}
}

func TestProcessor_Run_EmptyImageList(t *testing.T) {
	store, proc := setup(t, nil)
	visits := []domain.Visit{
		{StoreID: "S1", ImageURLs: nil},
		{StoreID: "S2", ImageURLs: []string{"u1"}},
	}
	job := createJob(t, store, visits)

	proc.Run(context.Background(), job.ID, visits)

	final, _ := store.Get(context.Background(), job.ID)
	if final.Status != domain.StatusCompleted {
		t.Errorf("status = %q, want %q", final.Status, domain.StatusCompleted)
	}
	// The empty visit contributes nothing.
	if len(final.Results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(final.Results))
	}
}

func TestProcessor_Run_MissingJob(t *testing.T) {
	store, proc := setup(t, nil)

	// No job created; the run must terminate without writing anything.
	proc.Run(context.Background(), "no-such-job", []domain.Visit{{StoreID: "S1", ImageURLs: []string{"u1"}}})

	if _, err := store.Get(context.Background(), "no-such-job"); err == nil {
		t.Error("Run() created a job that did not exist")
	}
}
