package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/types"
	"github.com/oaif-format/oaif/internal/engine"
)

// TypeHandler handles HTTP requests against the account and transaction type
// registries
type TypeHandler struct {
	accountTypes *engine.TypeRegistry
	txnTypes     *engine.TypeRegistry
	logger       *slog.Logger
}

// NewTypeHandler creates a new type handler
func NewTypeHandler(logger *slog.Logger, accountTypes, txnTypes *engine.TypeRegistry) *TypeHandler {
	return &TypeHandler{
		accountTypes: accountTypes,
		txnTypes:     txnTypes,
		logger:       logger,
	}
}

// ListAccountTypes retrieves all registered account types
func (h *TypeHandler) ListAccountTypes(c *gin.Context) {
	h.list(c, h.accountTypes)
}

// ListTransactionTypes retrieves all registered transaction types
func (h *TypeHandler) ListTransactionTypes(c *gin.Context) {
	h.list(c, h.txnTypes)
}

// RegisterAccountType registers a namespaced account type name
func (h *TypeHandler) RegisterAccountType(c *gin.Context) {
	h.register(c, h.accountTypes)
}

// RegisterTransactionType registers a namespaced transaction type name
func (h *TypeHandler) RegisterTransactionType(c *gin.Context) {
	h.register(c, h.txnTypes)
}

// GetTransactionTypeCategory reports the behavior flags of a transaction
// type
func (h *TypeHandler) GetTransactionTypeCategory(c *gin.Context) {
	name := c.Param("name")
	def := h.txnTypes.Definition(name)
	if def == nil {
		RespondNotFound(c, "Transaction type not found: "+name)
		return
	}

	category, err := h.txnTypes.Category(c.Request.Context(), def.ID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, gin.H{
		"name":              def.Name,
		"affects_ar":        category.AffectsAR,
		"affects_ap":        category.AffectsAP,
		"affects_inventory": category.AffectsInventory,
	})
}

func (h *TypeHandler) list(c *gin.Context, registry *engine.TypeRegistry) {
	defs, err := registry.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]TypeDefinitionResponse, len(defs))
	for i, def := range defs {
		responses[i] = mapTypeDefinition(def)
	}
	RespondOK(c, responses)
}

func (h *TypeHandler) register(c *gin.Context, registry *engine.TypeRegistry) {
	var req RegisterTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	def, err := registry.Register(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTypeDefinition(def))
}

func mapTypeDefinition(def *types.Definition) TypeDefinitionResponse {
	return TypeDefinitionResponse{
		ID:          def.ID,
		Name:        def.Name,
		IsStandard:  def.IsStandard,
		Description: def.Description,
	}
}
