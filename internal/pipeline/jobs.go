package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/longform/internal/config"
	"github.com/google/uuid"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusResolving JobStatus = "resolving"
	StatusWriting   JobStatus = "writing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	// StatusPartial means the export finished but produced warnings.
	StatusPartial JobStatus = "partial"
)

// Job tracks the state of a single export.
type Job struct {
	mu sync.Mutex

	ID      string         `json:"job_id"`
	Root    string         `json:"root"`
	Backend config.Backend `json:"backend"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	Progress Progress `json:"progress"`

	OutputFile string    `json:"output_file,omitempty"`
	OutputHash string    `json:"output_hash,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	settings config.Settings
	errors   []string
}

// Progress tracks what the pass collected.
type Progress struct {
	Labels   int      `json:"labels"`
	Media    int      `json:"media"`
	BibKeys  int      `json:"bib_keys"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job exporting root with settings.
func NewJob(root string, settings config.Settings) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		Root:      root,
		Backend:   settings.Backend,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		settings:  settings,
	}
}

func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records what the pass collected.
func (j *Job) SetCounts(title string, labels, media, bibKeys int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.Progress.Labels = labels
	j.Progress.Media = media
	j.Progress.BibKeys = bibKeys
	j.UpdatedAt = time.Now()
}

// AddWarnings appends rendered pass warnings.
func (j *Job) AddWarnings(warnings ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Warnings = append(j.Progress.Warnings, warnings...)
	j.UpdatedAt = time.Now()
}

// SetOutput records where the document was written.
func (j *Job) SetOutput(file, hash, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputFile = file
	j.OutputHash = hash
	j.Message = message
	j.UpdatedAt = time.Now()
}

// Settings returns the export settings the job runs with.
func (j *Job) Settings() config.Settings {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.settings
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string         `json:"job_id"`
	Root       string         `json:"root"`
	Backend    config.Backend `json:"backend"`
	Status     JobStatus      `json:"status"`
	Phase      string         `json:"phase"`
	Title      string         `json:"title"`
	Progress   Progress       `json:"progress"`
	OutputFile string         `json:"output_file,omitempty"`
	OutputHash string         `json:"output_hash,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	warnings := append([]string{}, j.Progress.Warnings...)
	return JobSnapshot{
		ID:      j.ID,
		Root:    j.Root,
		Backend: j.Backend,
		Status:  j.Status,
		Phase:   j.Phase,
		Title:   j.Title,
		Progress: Progress{
			Labels:   j.Progress.Labels,
			Media:    j.Progress.Media,
			BibKeys:  j.Progress.BibKeys,
			Warnings: warnings,
			Errors:   errs,
		},
		OutputFile: j.OutputFile,
		OutputHash: j.OutputHash,
		Message:    j.Message,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
