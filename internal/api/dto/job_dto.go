package dto

import (
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

type SubmitJobResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

type JobDTO struct {
	ID                 string  `json:"id"`
	Status             string  `json:"status"`
	Progress           int     `json:"progress"`
	Message            string  `json:"message"`
	DocumentsProcessed int     `json:"documentsProcessed"`
	TotalRecords       int     `json:"totalRecords"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
	CompletedAt        *string `json:"completedAt,omitempty"`
}

type DocumentDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    int    `json:"position"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

type ResultDTO struct {
	ID           int64  `json:"id"`
	DocID        string `json:"docId"`
	DocName      string `json:"docName"`
	Page         int    `json:"page"`
	OriginalTerm string `json:"originalTerm"`
	Canonical    string `json:"canonical"`
	Value        string `json:"value"`
	Confidence   int    `json:"confidence"`
	Evidence     string `json:"evidence"`
	CreatedAt    string `json:"createdAt"`
}

func NewJobDTO(job *domain.Job) JobDTO {
	out := JobDTO{
		ID:                 job.ID,
		Status:             string(job.Status),
		Progress:           job.Progress,
		Message:            job.Message,
		DocumentsProcessed: job.DocumentsProcessed,
		TotalRecords:       job.TotalRecords,
		CreatedAt:          job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          job.UpdatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &s
	}
	return out
}

func NewDocumentDTOs(docs []domain.Document) []DocumentDTO {
	out := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		out[i] = DocumentDTO{
			ID:          d.ID,
			Name:        d.Name,
			Position:    d.Position,
			FileSize:    d.FileSize,
			ContentType: d.ContentType,
			Status:      d.Status,
			CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}

func NewResultDTOs(rows []domain.Result) []ResultDTO {
	out := make([]ResultDTO, len(rows))
	for i, r := range rows {
		out[i] = ResultDTO{
			ID:           r.ID,
			DocID:        r.DocID,
			DocName:      r.DocName,
			Page:         r.Page,
			OriginalTerm: r.OriginalTerm,
			Canonical:    r.Canonical,
			Value:        r.Value,
			Confidence:   r.Confidence,
			Evidence:     r.Evidence,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}
