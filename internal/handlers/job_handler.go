package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/models"
)

type JobStore interface {
	CreateJob(ctx context.Context, req *dtos.JobCreationRequest) (*models.Job, error)
	ListJobs(ctx context.Context, q dtos.JobListQuery) (*dtos.Page[models.Job], error)
	ListJobEvents(ctx context.Context, jobID uint, q dtos.ListQuery) (*dtos.Page[models.JobEvent], error)
}

type JobExtractor interface {
	ExtractJobDetails(ctx context.Context, rawHTML string) (json.RawMessage, error)
}

type JobHandler struct {
	Extractor JobExtractor
	Jobs      JobStore
}

func NewJobHandler(extractor JobExtractor, jobs JobStore) *JobHandler {
	return &JobHandler{
		Extractor: extractor,
		Jobs:      jobs,
	}
}

// ParseJob is the POST /jobs/extract endpoint.
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	extracted, err := h.Extractor.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		failErr(c, "AI extraction failed", err)
		return
	}
	respond(c, http.StatusOK, extracted)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	job, err := h.Jobs.CreateJob(c.Request.Context(), &req)
	if err != nil {
		failErr(c, "Failed to create job", err)
		return
	}
	respond(c, http.StatusCreated, job)
}

// ListJobs is GET /jobs?page&limit&search&status&view.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.JobListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}
	q.ListQuery = q.ListQuery.WithDefaults()

	page, err := h.Jobs.ListJobs(c.Request.Context(), q)
	if err != nil {
		failErr(c, "Failed to list jobs", err)
		return
	}
	respond(c, http.StatusOK, page)
}

// ListJobEvents is GET /jobs/:id/events?page&limit&search.
func (h *JobHandler) ListJobEvents(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var q dtos.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}

	page, err := h.Jobs.ListJobEvents(c.Request.Context(), id, q.WithDefaults())
	if err != nil {
		failErr(c, "Failed to list job events", err)
		return
	}
	respond(c, http.StatusOK, page)
}
