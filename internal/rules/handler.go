package rules

import (
	"errors"
	"net/http"

	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid rule id"
	msgRuleNotFound     = "scoring rule not found"
)

// Handler handles HTTP requests for scoring rules.
type Handler struct {
	repo *Repository
	val  *validator.Validator
}

func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

type CreateRuleRequest struct {
	EventType string `json:"eventType" validate:"required,min=1,max=100"`
	Points    *int   `json:"points" validate:"required,min=-1000,max=1000"`
	Active    *bool  `json:"active"`
}

type UpdateRuleRequest struct {
	Points *int  `json:"points,omitempty" validate:"omitempty,min=-1000,max=1000"`
	Active *bool `json:"active,omitempty"`
}

// List retrieves all scoring rules.
// GET /api/v1/rules
func (h *Handler) List(c *gin.Context) {
	result, err := h.repo.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates a new scoring rule.
// POST /api/v1/rules
func (h *Handler) Create(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	result, err := h.repo.Create(c.Request.Context(), CreateRuleParams{
		EventType: req.EventType,
		Points:    *req.Points,
		Active:    active,
	})
	if errors.Is(err, ErrDuplicateEventType) {
		httpkit.Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Update changes a rule's points or active flag.
// PUT /api/v1/rules/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.repo.Update(c.Request.Context(), id, UpdateRuleParams{
		Points: req.Points,
		Active: req.Active,
	})
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, msgRuleNotFound, nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a scoring rule. Existing history rows keep their recorded
// deltas; only future events stop scoring.
// DELETE /api/v1/rules/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	err = h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, msgRuleNotFound, nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}
