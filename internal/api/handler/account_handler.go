package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/engine"
)

// AccountHandler handles HTTP requests for chart-of-accounts operations
type AccountHandler struct {
	entities     *engine.EntityStore
	accountTypes *engine.TypeRegistry
	logger       *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, entities *engine.EntityStore, accountTypes *engine.TypeRegistry) *AccountHandler {
	return &AccountHandler{
		entities:     entities,
		accountTypes: accountTypes,
		logger:       logger,
	}
}

// Create adds an account to the chart of accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	typeID, err := h.accountTypes.IDOf(req.Type)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	acc, err := entity.NewAccount(typeID, req.Name, req.Code, req.Currency)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	acc.ParentID = req.ParentID

	if err := h.entities.CreateAccount(c.Request.Context(), acc); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, acc)
}

// GetByID retrieves an account by its ID, returns 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, err := h.entities.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, acc)
}

// List retrieves all accounts in the chart of accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.entities.ListAccounts(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, accounts)
}

// ParentChain retrieves the ancestor chain of an account, nearest parent
// first
func (h *AccountHandler) ParentChain(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	chain, err := h.entities.ParentChain(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, chain)
}

// GetBalance compares the cached balance of an account against the balance
// derived from its posted lines
func (h *AccountHandler) GetBalance(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	drift, err := h.entities.RecomputeBalance(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, driftResponse(drift))
}

// RepairBalance rewrites the cached balance of an account from its posted
// lines
func (h *AccountHandler) RepairBalance(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	drift, err := h.entities.RepairBalance(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, driftResponse(drift))
}

func driftResponse(d *engine.BalanceDrift) BalanceDriftResponse {
	return BalanceDriftResponse{
		AccountID: d.AccountID,
		Cached:    d.Cached,
		Derived:   d.Derived,
		Drift:     d.Drift,
		InSync:    d.InSync(),
	}
}
