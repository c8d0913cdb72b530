package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/cuongbtq/invoice-pipeline/internal/api/dto"
	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/internal/export"
	"github.com/cuongbtq/invoice-pipeline/internal/pipeline"
	"github.com/gin-gonic/gin"
)

const formFieldFiles = "files"

// multipart parts beyond this are spooled to disk by mime/multipart
const multipartMemory = 32 << 20

// SubmitJob handles POST /api/v1/jobs
// Stores the uploaded invoices and schedules them for extraction
func (h *JobHandler) SubmitJob(c *gin.Context) {
	if h.limits.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		h.logger.Warn("Invalid multipart body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	files := c.Request.MultipartForm.File[formFieldFiles]
	if h.limits.MaxFiles > 0 && len(files) > h.limits.MaxFiles {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("too many files: %d (max %d)", len(files), h.limits.MaxFiles),
		})
		return
	}

	uploads := make([]pipeline.Upload, len(files))
	for i, fh := range files {
		uploads[i] = toUpload(fh)
	}

	job, err := h.submitter.Submit(c.Request.Context(), uploads)
	if err != nil {
		respondError(c, h.logger, err, "Failed to submit job")
		return
	}

	c.JSON(http.StatusOK, dto.SubmitJobResponse{
		JobID:  job.ID,
		Status: string(domain.JobStatusQueued),
	})
}

func toUpload(fh *multipart.FileHeader) pipeline.Upload {
	return pipeline.Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the status and progress of a job in any state
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetStatus(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get job")
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with optional status filter and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	page, err := h.jobs.ListJobs(c.Request.Context(), domain.JobFilter{
		Status:   domain.JobStatus(req.Status),
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to list jobs")
		return
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobDTO, len(page.Jobs))}
	for i := range page.Jobs {
		resp.Jobs[i] = dto.NewJobDTO(&page.Jobs[i])
	}
	if page.NextCursor != nil {
		resp.NextCursor = EncodeJobCursor(page.NextCursor)
	}

	c.JSON(http.StatusOK, resp)
}

// ListDocuments handles GET /api/v1/jobs/:job_id/documents
func (h *JobHandler) ListDocuments(c *gin.Context) {
	docs, err := h.jobs.ListDocuments(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to list documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": dto.NewDocumentDTOs(docs)})
}

// GetResults handles GET /api/v1/jobs/:job_id/results
func (h *JobHandler) GetResults(c *gin.Context) {
	rows, err := h.jobs.GetResults(c.Request.Context(), c.Param("job_id"), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get results")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": dto.NewResultDTOs(rows)})
}

// ExportResults handles GET /api/v1/jobs/:job_id/export
// Streams the results of a finished job as a CSV or XLSX attachment
func (h *JobHandler) ExportResults(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, h.logger, err, "Invalid export format")
		return
	}

	file, err := h.jobs.Export(c.Request.Context(), c.Param("job_id"), format)
	if err != nil {
		respondError(c, h.logger, err, "Failed to export results")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
