package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is a step of the render pipeline.
type State string

const (
	StateIdle               State = "idle"
	StateDataLoaded         State = "data_loaded"
	StatePartialsRegistered State = "partials_registered"
	StateStyleResolved      State = "style_resolved"
	StateHTMLAssembled      State = "html_assembled"
	StatePageLoaded         State = "page_loaded"
	StatePDFExported        State = "pdf_exported"
	StateClosed             State = "closed"
	StateFailed             State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// Where a job came from.
const (
	SourceCLI   = "cli"
	SourceHTTP  = "http"
	SourceWatch = "watch"
)

// RenderJob tracks one pass through the pipeline.
type RenderJob struct {
	ID        uuid.UUID              `json:"id"`
	Source    string                 `json:"source"`
	Status    State                  `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func NewRenderJob(source string) *RenderJob {
	now := time.Now().UTC()
	return &RenderJob{
		ID:        uuid.New(),
		Source:    source,
		Status:    StateIdle,
		Metadata:  map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Set records a metadata value.
func (j *RenderJob) Set(key string, v interface{}) {
	if j.Metadata == nil {
		j.Metadata = map[string]interface{}{}
	}
	j.Metadata[key] = v
}

var (
	// ErrJobNotFound is returned when no job has the requested id.
	ErrJobNotFound = errors.New("render job not found")
	// ErrJobsDisabled is returned by lookups when no jobs database is configured.
	ErrJobsDisabled = errors.New("render job storage disabled")
)
