package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/longform/internal/config"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	// SHA-256 of empty input is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Backend = config.BackendLaTeX
	job := NewJob("Paper.md", settings)

	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Backend != config.BackendLaTeX {
		t.Errorf("expected backend %q, got %q", config.BackendLaTeX, job.Backend)
	}
	if job.Settings().Backend != config.BackendLaTeX {
		t.Error("expected settings to be kept on the job")
	}

	other := NewJob("Paper.md", settings)
	if other.ID == job.ID {
		t.Errorf("expected unique ids, got %q twice", job.ID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusResolving, "unrolling"},
		{StatusWriting, "writing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SetStatusFailed(t *testing.T) {
	job := &Job{
		ID:        "test-fail",
		Status:    StatusResolving,
		UpdatedAt: time.Now(),
	}
	job.SetStatus(StatusFailed, "unrolling")
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("root note not found")
	job.AddError("write failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "root note not found" {
		t.Errorf("expected first error %q, got %q", "root note not found", snap.Progress.Errors[0])
	}
}

func TestJob_SetCounts(t *testing.T) {
	job := &Job{ID: "counts-test", UpdatedAt: time.Now()}
	job.SetCounts("My Paper", 4, 2, 3)

	snap := job.Snapshot()
	if snap.Title != "My Paper" {
		t.Errorf("expected title %q, got %q", "My Paper", snap.Title)
	}
	if snap.Progress.Labels != 4 || snap.Progress.Media != 2 || snap.Progress.BibKeys != 3 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestJob_Warnings(t *testing.T) {
	job := &Job{ID: "warn-test", UpdatedAt: time.Now()}
	job.AddWarnings("cycle_detected: B.md")
	job.AddWarnings("duplicate_label: eq:1")

	snap := job.Snapshot()
	if len(snap.Progress.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(snap.Progress.Warnings))
	}

	// Snapshots are copies.
	snap.Progress.Warnings[0] = "changed"
	if job.Snapshot().Progress.Warnings[0] != "cycle_detected: B.md" {
		t.Error("snapshot shares its warnings slice with the job")
	}
}

func TestJob_SetOutput(t *testing.T) {
	job := &Job{ID: "out-test", UpdatedAt: time.Now()}
	job.SetOutput("export/Paper/mainmd.typ", ContentHashHex([]byte("doc")), "SUCCESS!!")

	snap := job.Snapshot()
	if snap.OutputFile != "export/Paper/mainmd.typ" {
		t.Errorf("unexpected output file %q", snap.OutputFile)
	}
	if len(snap.OutputHash) != 64 {
		t.Errorf("expected hex sha256, got %q", snap.OutputHash)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil slices in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
