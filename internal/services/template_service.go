package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/models"
	"gorm.io/gorm"
)

type TemplateService struct {
	DB *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{DB: db}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, req *dtos.TemplateCreationRequest) (*models.EmailTemplate, error) {
	tpl := &models.EmailTemplate{
		Name:     req.Name,
		Category: req.Category,
		Subject:  req.Subject,
		Body:     req.Body,
	}
	if err := s.DB.WithContext(ctx).Create(tpl).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("template %q: %w", req.Name, ErrDuplicate)
		}
		return nil, fmt.Errorf("create template: %w", err)
	}
	return tpl, nil
}

// ListTemplates returns one page of templates ordered by name.
func (s *TemplateService) ListTemplates(ctx context.Context, q dtos.TemplateListQuery) (*dtos.Page[models.EmailTemplate], error) {
	q.ListQuery = q.ListQuery.WithDefaults()

	tx := s.DB.WithContext(ctx).Model(&models.EmailTemplate{})
	if q.Search != "" {
		like := containsPattern(q.Search)
		tx = tx.Where("name ILIKE ? OR subject ILIKE ?", like, like)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	return listPage[models.EmailTemplate](tx, q.ListQuery, "name ASC, id ASC")
}

func (s *TemplateService) GetTemplate(ctx context.Context, id uint) (*models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := s.DB.WithContext(ctx).First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load template %d: %w", id, err)
	}
	return &tpl, nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.EmailTemplate{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete template %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
