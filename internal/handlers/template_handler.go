package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/justsurfingit/hireboard/internal/models"
)

type TemplateStore interface {
	CreateTemplate(ctx context.Context, req *dtos.TemplateCreationRequest) (*models.EmailTemplate, error)
	ListTemplates(ctx context.Context, q dtos.TemplateListQuery) (*dtos.Page[models.EmailTemplate], error)
	GetTemplate(ctx context.Context, id uint) (*models.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, id uint) error
}

type TemplateDrafter interface {
	DraftTemplate(ctx context.Context, req *dtos.TemplateDraftRequest) (*dtos.TemplateDraft, error)
}

type TemplateHandler struct {
	Templates TemplateStore
	Drafter   TemplateDrafter
}

func NewTemplateHandler(templates TemplateStore, drafter TemplateDrafter) *TemplateHandler {
	return &TemplateHandler{Templates: templates, Drafter: drafter}
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req dtos.TemplateCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	tpl, err := h.Templates.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		failErr(c, "Failed to create template", err)
		return
	}
	respond(c, http.StatusCreated, tpl)
}

// ListTemplates is GET /email-templates?page&limit&search&category.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var q dtos.TemplateListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}
	q.ListQuery = q.ListQuery.WithDefaults()

	page, err := h.Templates.ListTemplates(c.Request.Context(), q)
	if err != nil {
		failErr(c, "Failed to list templates", err)
		return
	}
	respond(c, http.StatusOK, page)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	tpl, err := h.Templates.GetTemplate(c.Request.Context(), id)
	if err != nil {
		failErr(c, "Failed to load template", err)
		return
	}
	respond(c, http.StatusOK, tpl)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Templates.DeleteTemplate(c.Request.Context(), id); err != nil {
		failErr(c, "Failed to delete template", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DraftTemplate asks the model for a subject and body; nothing is stored.
func (h *TemplateHandler) DraftTemplate(c *gin.Context) {
	var req dtos.TemplateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	draft, err := h.Drafter.DraftTemplate(c.Request.Context(), &req)
	if err != nil {
		failErr(c, "AI draft failed", err)
		return
	}
	respond(c, http.StatusOK, draft)
}
