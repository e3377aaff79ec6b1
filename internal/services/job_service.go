package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/models"
	"gorm.io/gorm"
)

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

// CreateJob stores a job, creating its company on first use, and records a
// CREATED event.
func (s *JobService) CreateJob(ctx context.Context, req *dtos.JobCreationRequest) (*models.Job, error) {
	status := req.Status
	if status == "" {
		status = models.StatusApplied
	}

	job := &models.Job{
		Title:       req.Title,
		Description: req.Description,
		JobLink:     req.JobLink,
		Location:    req.Location,
		SalaryRange: req.SalaryRange,
		Status:      status,
		ResumeLink:  req.ResumeLink,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.Where(models.Company{Name: strings.TrimSpace(req.CompanyName)}).FirstOrCreate(&company).Error; err != nil {
			return fmt.Errorf("find or create company: %w", err)
		}
		job.CompanyID = company.ID
		job.Company = company

		if err := tx.Omit("Company").Create(job).Error; err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		event := models.JobEvent{
			JobID:     job.ID,
			EventType: "CREATED",
			Details:   fmt.Sprintf("Tracking %s at %s (status %s)", job.Title, company.Name, status),
		}
		if len(req.TechStack) > 0 {
			event.Details += ". Stack: " + strings.Join(req.TechStack, ", ")
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns one page of jobs, newest first. Search matches the title
// or the company name.
func (s *JobService) ListJobs(ctx context.Context, q dtos.JobListQuery) (*dtos.Page[models.Job], error) {
	q.ListQuery = q.ListQuery.WithDefaults()

	tx := s.DB.WithContext(ctx).Model(&models.Job{}).Joins("Company")
	if q.Search != "" {
		like := containsPattern(q.Search)
		tx = tx.Where(`jobs.title ILIKE ? OR "Company".name ILIKE ?`, like, like)
	}
	if q.Status != "" {
		tx = tx.Where("jobs.status = ?", q.Status)
	}
	switch q.View {
	case dtos.ViewActive:
		tx = tx.Where("jobs.status NOT IN ?", models.TerminalStatuses)
	case dtos.ViewClosed:
		tx = tx.Where("jobs.status IN ?", models.TerminalStatuses)
	}

	return listPage[models.Job](tx, q.ListQuery, "jobs.created_at DESC, jobs.id DESC")
}

// ListJobEvents returns one page of a job's history, newest first.
func (s *JobService) ListJobEvents(ctx context.Context, jobID uint, q dtos.ListQuery) (*dtos.Page[models.JobEvent], error) {
	q = q.WithDefaults()
	db := s.DB.WithContext(ctx)

	var job models.Job
	if err := db.Select("id").First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load job %d: %w", jobID, err)
	}

	tx := db.Model(&models.JobEvent{}).Where("job_id = ?", jobID)
	if q.Search != "" {
		like := containsPattern(q.Search)
		tx = tx.Where("event_type ILIKE ? OR details ILIKE ?", like, like)
	}
	return listPage[models.JobEvent](tx, q, "created_at DESC, id DESC")
}
