// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/collab-code-editor/backend/internal/language"
	"github.com/collab-code-editor/backend/internal/model"
	"github.com/collab-code-editor/backend/internal/repository"
	"github.com/gin-gonic/gin"
)

// RunHandler serves the run history API.
type RunHandler struct {
	repo     *repository.RunRepository
	registry *language.Registry
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(repo *repository.RunRepository, registry *language.Registry) *RunHandler {
	return &RunHandler{
		repo:     repo,
		registry: registry,
	}
}

// RunResponse represents a run record in API responses.
type RunResponse struct {
	Token     string `json:"token"`
	Language  string `json:"language"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
	Output    string `json:"output"`
	CreatedAt string `json:"createdAt"`
}

// LanguageResponse describes a supported language.
type LanguageResponse struct {
	ID       string `json:"id"`
	Compiled bool   `json:"compiled"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func toRunResponse(r *model.RunRecord) *RunResponse {
	return &RunResponse{
		Token:     r.Token,
		Language:  string(r.Language),
		Status:    string(r.Status),
		Duration:  (time.Duration(r.Duration) * time.Millisecond).String(),
		Output:    r.Output,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterRoutes registers the run handler routes on a Gin router group.
func (h *RunHandler) RegisterRoutes(rg *gin.RouterGroup) {
	runs := rg.Group("/runs")
	{
		runs.GET("", h.List)
		runs.GET("/:token", h.Get)
	}
	rg.GET("/languages", h.Languages)
}

// List handles GET /api/runs - lists recent runs, newest first.
func (h *RunHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	runs, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list runs: "+err.Error())
		return
	}

	resp := make([]*RunResponse, 0, len(runs))
	for _, r := range runs {
		resp = append(resp, toRunResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": resp})
}

// Get handles GET /api/runs/:token - returns a single run record.
func (h *RunHandler) Get(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Run token is required")
		return
	}

	run, err := h.repo.GetByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrRunNotFound) {
			sendError(c, http.StatusNotFound, "RUN_NOT_FOUND", "Run "+token+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get run: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

// Languages handles GET /api/languages - lists the supported languages.
func (h *RunHandler) Languages(c *gin.Context) {
	ids := h.registry.IDs()
	resp := make([]LanguageResponse, 0, len(ids))
	for _, id := range ids {
		plan, ok := h.registry.Lookup(id)
		if !ok {
			continue
		}
		resp = append(resp, LanguageResponse{
			ID:       string(id),
			Compiled: plan.Compiled(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": resp})
}
