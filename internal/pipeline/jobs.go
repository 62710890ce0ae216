package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of one document parse job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusWriting    JobStatus = "writing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Terminal reports whether a job in this status is done moving.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of a single document parse.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	Path  string `json:"path"`
	DocID string `json:"doc_id,omitempty"`

	Strategy     Strategy  `json:"strategy"`
	StrategyUsed Strategy  `json:"strategy_used,omitempty"`
	Status       JobStatus `json:"status"`
	Phase        string    `json:"phase"`

	Progress Progress `json:"progress"`

	EnvelopePath   string `json:"envelope_path,omitempty"`
	ParagraphsPath string `json:"paragraphs_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	warnings []string
	errors   []string
}

// Progress tracks what the parse produced so far.
type Progress struct {
	Pages      int      `json:"pages"`
	Paragraphs int      `json:"paragraphs"`
	Sections   int      `json:"sections"`
	Warnings   []string `json:"warnings"`
	Errors     []string `json:"errors"`
}

// NewJob creates a queued job for one file.
func NewJob(path string, strat Strategy) *Job {
	now := time.Now()
	return &Job{
		ID:        newULID(),
		Path:      path,
		Strategy:  strat,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
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

// AddWarnings records parse warnings.
func (j *Job) AddWarnings(warnings ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warnings = append(j.warnings, warnings...)
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// SetDocument records the extracted document's identity.
func (j *Job) SetDocument(docID string, pages int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DocID = docID
	j.Progress.Pages = pages
	j.UpdatedAt = time.Now()
}

// SetOutcome records which strategy won and what it produced.
func (j *Job) SetOutcome(used Strategy, paragraphs, sections int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.StrategyUsed = used
	j.Progress.Paragraphs = paragraphs
	j.Progress.Sections = sections
	j.UpdatedAt = time.Now()
}

// SetOutputs records where the writer landed the result.
func (j *Job) SetOutputs(envelope, paragraphs string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.EnvelopePath = envelope
	j.ParagraphsPath = paragraphs
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID             string    `json:"job_id"`
	Path           string    `json:"path"`
	DocID          string    `json:"doc_id,omitempty"`
	Strategy       Strategy  `json:"strategy"`
	StrategyUsed   Strategy  `json:"strategy_used,omitempty"`
	Status         JobStatus `json:"status"`
	Phase          string    `json:"phase"`
	Progress       Progress  `json:"progress"`
	EnvelopePath   string    `json:"envelope_path,omitempty"`
	ParagraphsPath string    `json:"paragraphs_path,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	warns := j.Progress.Warnings
	if warns == nil {
		warns = []string{}
	}
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:           j.ID,
		Path:         j.Path,
		DocID:        j.DocID,
		Strategy:     j.Strategy,
		StrategyUsed: j.StrategyUsed,
		Status:       j.Status,
		Phase:        j.Phase,
		Progress: Progress{
			Pages:      j.Progress.Pages,
			Paragraphs: j.Progress.Paragraphs,
			Sections:   j.Progress.Sections,
			Warnings:   warns,
			Errors:     errs,
		},
		EnvelopePath:   j.EnvelopePath,
		ParagraphsPath: j.ParagraphsPath,
	}
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
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
