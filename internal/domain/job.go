package domain

import "time"

// JobStatus is the lifecycle state of an ingestion batch
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// IsTerminal reports whether no further transitions are allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Job is the progress-tracked record of one ingestion batch
type Job struct {
	ID                 string     `db:"id"`
	Status             JobStatus  `db:"status"`
	Progress           int        `db:"progress"`
	Message            string     `db:"message"`
	FilesSubmitted     int        `db:"files_submitted"`
	DocumentsProcessed int        `db:"documents_processed"`
	TotalRecords       int        `db:"total_records"`
	WorkerID           *string    `db:"worker_id"`
	StartedAt          *time.Time `db:"started_at"`
	LastHeartbeatAt    *time.Time `db:"last_heartbeat_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// JobUpdate is a partial update; nil fields are left untouched
type JobUpdate struct {
	Status             *JobStatus
	Progress           *int
	Message            *string
	DocumentsProcessed *int
	TotalRecords       *int
}

// Apply merges the update into job
func (u JobUpdate) Apply(job *Job) {
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.Progress != nil {
		job.Progress = *u.Progress
	}
	if u.Message != nil {
		job.Message = *u.Message
	}
	if u.DocumentsProcessed != nil {
		job.DocumentsProcessed = *u.DocumentsProcessed
	}
	if u.TotalRecords != nil {
		job.TotalRecords = *u.TotalRecords
	}
}

// ProgressUpdate builds an update that only moves progress and message
func ProgressUpdate(progress int, message string) JobUpdate {
	return JobUpdate{Progress: &progress, Message: &message}
}

// StatusUpdate builds an update that changes status and message
func StatusUpdate(status JobStatus, message string) JobUpdate {
	return JobUpdate{Status: &status, Message: &message}
}

// JobFilter selects jobs for listing
type JobFilter struct {
	Status   JobStatus
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is the keyset position of the last job on a page
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}
