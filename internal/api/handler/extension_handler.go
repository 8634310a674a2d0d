package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/extension"
	"github.com/oaif-format/oaif/internal/engine"
)

// ExtensionHandler handles HTTP requests for the extension-field overlay
type ExtensionHandler struct {
	extensions *engine.ExtensionService
	logger     *slog.Logger
}

// NewExtensionHandler creates a new extension handler
func NewExtensionHandler(logger *slog.Logger, extensions *engine.ExtensionService) *ExtensionHandler {
	return &ExtensionHandler{
		extensions: extensions,
		logger:     logger,
	}
}

// Set writes an extension field on a parent record, replacing any previous
// value under the same namespace and name
func (h *ExtensionHandler) Set(c *gin.Context) {
	parentID, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	var req SetExtensionFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	field := &extension.Field{
		ParentTable: c.Param("table"),
		ParentID:    parentID,
		Namespace:   req.Namespace,
		Name:        req.Name,
		ValueType:   extension.ValueType(req.ValueType),
		Value:       req.Value,
	}

	if err := h.extensions.SetField(c.Request.Context(), field); err != nil {
		respondExtensionError(c, h.logger, err)
		return
	}

	RespondOK(c, field)
}

// List retrieves the extension fields of a parent record
func (h *ExtensionHandler) List(c *gin.Context) {
	parentID, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	fields, err := h.extensions.ListFields(c.Request.Context(), c.Param("table"), parentID)
	if err != nil {
		respondExtensionError(c, h.logger, err)
		return
	}

	RespondOK(c, fields)
}

// Delete removes one extension field from a parent record
func (h *ExtensionHandler) Delete(c *gin.Context) {
	parentID, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	err = h.extensions.DeleteField(c.Request.Context(), c.Param("table"), parentID, c.Param("namespace"), c.Param("name"))
	if err != nil {
		respondExtensionError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// respondExtensionError narrows extension failures to client errors: the
// whitelist, namespace and value-type checks all reflect bad input.
func respondExtensionError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		badValueType extension.ErrInvalidValueType
		badParent    extension.ErrInvalidParentTable
	)
	if errors.As(err, &badValueType) || errors.As(err, &badParent) {
		RespondBadRequest(c, err.Error())
		return
	}
	respondDomainError(c, logger, err)
}
