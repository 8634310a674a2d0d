package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/engine"
)

// EntityHandler handles HTTP requests for parties, items, tax codes and
// securities
type EntityHandler struct {
	entities *engine.EntityStore
	logger   *slog.Logger
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(logger *slog.Logger, entities *engine.EntityStore) *EntityHandler {
	return &EntityHandler{
		entities: entities,
		logger:   logger,
	}
}

// CreateParty adds a customer, vendor or employee
func (h *EntityHandler) CreateParty(c *gin.Context) {
	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := entity.NewParty(entity.PartyKind(req.Kind), req.Name, req.Email)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	if err := h.entities.CreateParty(c.Request.Context(), p); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, p)
}

// GetParty retrieves a party by its ID, returns 404 if not found
func (h *EntityHandler) GetParty(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	p, err := h.entities.GetParty(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, p)
}

// ListParties retrieves parties, optionally filtered by kind
func (h *EntityHandler) ListParties(c *gin.Context) {
	kind := entity.PartyKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		RespondBadRequest(c, "Invalid party kind: "+string(kind))
		return
	}

	parties, err := h.entities.ListParties(c.Request.Context(), kind)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, parties)
}

// CreateItem adds a product or service item
func (h *EntityHandler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	it := &entity.Item{
		Name:      req.Name,
		ParentID:  req.ParentID,
		UnitPrice: req.UnitPrice,
		IsActive:  true,
	}
	if err := h.entities.CreateItem(c.Request.Context(), it); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, it)
}

// GetItem retrieves an item by its ID, returns 404 if not found
func (h *EntityHandler) GetItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	it, err := h.entities.GetItem(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, it)
}

// CreateTaxCode adds a tax code
func (h *EntityHandler) CreateTaxCode(c *gin.Context) {
	var req CreateTaxCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tc := &entity.TaxCode{Name: req.Name, Rate: req.Rate}
	if err := h.entities.CreateTaxCode(c.Request.Context(), tc); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, tc)
}

// CreateSecurity adds a security, rejecting duplicate symbols
func (h *EntityHandler) CreateSecurity(c *gin.Context) {
	var req CreateSecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sec, err := entity.NewSecurity(req.Symbol, req.Name, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	if err := h.entities.CreateSecurity(c.Request.Context(), sec); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, sec)
}

// GetSecurity retrieves a security by its ID, returns 404 if not found
func (h *EntityHandler) GetSecurity(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	sec, err := h.entities.GetSecurity(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, sec)
}
