package pipeline

import (
	"sync"
	"time"

	"github.com/flattex/flattex/internal/texdoc"
)

// JobStatus represents the state of a flattening job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusWriting   JobStatus = "writing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single project flattening.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	ProjectDir string `json:"project_dir"`
	RootDoc    string `json:"root_doc"`
	OutputDir  string `json:"output_dir"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	report string
	errors []string
}

// Progress summarizes what the pipeline produced so far.
type Progress struct {
	MergedFiles  int              `json:"merged_files"`
	Declarations int              `json:"declarations"`
	BibEntries   int              `json:"bib_entries"`
	Assets       int              `json:"assets"`
	Warnings     []texdoc.Warning `json:"warnings"`
	Errors       []string         `json:"errors"`
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

// SetProgress records the pipeline's output counts and warnings.
func (j *Job) SetProgress(mergedFiles, decls, bibEntries, assets int, warnings []texdoc.Warning) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.MergedFiles = mergedFiles
	j.Progress.Declarations = decls
	j.Progress.BibEntries = bibEntries
	j.Progress.Assets = assets
	j.Progress.Warnings = warnings
	j.UpdatedAt = time.Now()
}

// SetReport stores the rendered run report.
func (j *Job) SetReport(md string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = md
	j.UpdatedAt = time.Now()
}

// Report returns the rendered run report, empty until the job completes.
func (j *Job) Report() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	ProjectDir string    `json:"project_dir"`
	RootDoc    string    `json:"root_doc"`
	OutputDir  string    `json:"output_dir"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	warns := j.Progress.Warnings
	if warns == nil {
		warns = []texdoc.Warning{}
	}
	return JobSnapshot{
		ID:         j.ID,
		ProjectDir: j.ProjectDir,
		RootDoc:    j.RootDoc,
		OutputDir:  j.OutputDir,
		Status:     j.Status,
		Phase:      j.Phase,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
		Progress: Progress{
			MergedFiles:  j.Progress.MergedFiles,
			Declarations: j.Progress.Declarations,
			BibEntries:   j.Progress.BibEntries,
			Assets:       j.Progress.Assets,
			Warnings:     warns,
			Errors:       errs,
		},
	}
}
