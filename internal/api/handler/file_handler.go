package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/engine"
)

// FileHandler handles HTTP requests for file-level metadata
type FileHandler struct {
	handle *engine.Handle
	logger *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(logger *slog.Logger, handle *engine.Handle) *FileHandler {
	return &FileHandler{
		handle: handle,
		logger: logger,
	}
}

// GetMetadata retrieves the metadata key/value pairs of the open file
func (h *FileHandler) GetMetadata(c *gin.Context) {
	metadata, err := h.handle.Metadata(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read file metadata", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{
		"path":     h.handle.Path(),
		"metadata": metadata,
	})
}

// SetMetadata writes one metadata key on the open file
func (h *FileHandler) SetMetadata(c *gin.Context) {
	key := c.Param("key")

	var req SetMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.handle.SetMetadata(c.Request.Context(), key, req.Value); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	RespondOK(c, gin.H{"key": key, "value": req.Value})
}
