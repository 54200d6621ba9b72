package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one input file waiting to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps path with a submission time and trace ID.
func NewJob(path string) Job {
	return Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
}

// Outcome is published on the results channel for every finished job.
type Outcome struct {
	Job    Job
	Result pipeline.Result
	Err    error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// FileProcessor is the work each queued job runs.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (pipeline.Result, error)
}
