package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/engine"
)

// ValidationHandler handles HTTP requests for integrity validation runs
type ValidationHandler struct {
	validator *engine.Validator
	logger    *slog.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(logger *slog.Logger, validator *engine.Validator) *ValidationHandler {
	return &ValidationHandler{
		validator: validator,
		logger:    logger,
	}
}

// ValidateFile runs the full-file integrity check and reports every finding
func (h *ValidationHandler) ValidateFile(c *gin.Context) {
	report, err := h.validator.ValidateFile(c.Request.Context())
	if err != nil {
		h.logger.Error("Validation run failed", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{
		"run_id":          report.RunID,
		"started_at":      report.StartedAt,
		"duration_ms":     report.Duration.Milliseconds(),
		"headers_checked": report.HeadersChecked,
		"trial_balance":   report.TrialBalance,
		"valid":           report.Valid(),
		"issues":          report.Issues,
	})
}

// ValidateTransaction checks one transaction against the integrity rules
func (h *ValidationHandler) ValidateTransaction(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	issues, err := h.validator.ValidateHeader(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{
		"header_id": id,
		"issues":    issues,
	})
}
