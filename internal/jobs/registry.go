package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks job lifecycle state, queryable by job id for polling
// clients. It mirrors the runner's execution bookkeeping only; results live
// in the cache, keyed by content hash.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

// Create registers a new pending job and returns it.
func (r *Registry) Create(fileHash, filename string) *Job {
	job := &Job{
		ID:         uuid.New().String(),
		FileHash:   fileHash,
		Filename:   filename,
		Status:     StatusPending,
		EnqueuedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return job
}

// MarkRunning transitions a pending job to running.
func (r *Registry) MarkRunning(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[jobID]; ok && !job.Status.Terminal() {
		job.Status = StatusRunning
		job.StartedAt = time.Now().UTC()
	}
}

// MarkSuccess transitions a job to its terminal success state.
func (r *Registry) MarkSuccess(jobID string) {
	r.finish(jobID, StatusSuccess, "")
}

// MarkFailure transitions a job to its terminal failure state with detail.
func (r *Registry) MarkFailure(jobID string, detail string) {
	r.finish(jobID, StatusFailure, detail)
}

func (r *Registry) finish(jobID string, status Status, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = status
	job.Error = detail
	job.FinishedAt = time.Now().UTC()
}

// Get returns a copy of the job record, or false if the id is unknown.
func (r *Registry) Get(jobID string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}
