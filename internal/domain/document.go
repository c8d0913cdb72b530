package domain

import "time"

// DocumentStatusUploaded marks a document whose bytes are in the blob store
const DocumentStatusUploaded = "uploaded"

// Document is one uploaded file of a job
type Document struct {
	ID          string    `db:"id"`
	JobID       string    `db:"job_id"`
	Position    int       `db:"position"`
	Name        string    `db:"name"`
	FilePath    string    `db:"file_path"`
	FileSize    int64     `db:"file_size"`
	ContentType string    `db:"content_type"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

// File is the content of a document handed to the extractor
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
