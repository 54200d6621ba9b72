package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusTextOK   JobStatus = "TEXT_OK"   // stage 1 completed (text extracted)
	JobStatusFieldsOK JobStatus = "FIELDS_OK" // stage 2 completed (fields resolved)
	JobStatusFailed   JobStatus = "FAILED"    // terminal failure
)
