package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/engine"
)

// LotHandler handles HTTP requests for investment cost-basis operations
type LotHandler struct {
	costBasis *engine.CostBasisService
	logger    *slog.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(logger *slog.Logger, costBasis *engine.CostBasisService) *LotHandler {
	return &LotHandler{
		costBasis: costBasis,
		logger:    logger,
	}
}

// Acquire opens a new lot for a purchase
func (h *LotHandler) Acquire(c *gin.Context) {
	var req AcquireLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	lot, err := h.costBasis.Acquire(c.Request.Context(), engine.Acquisition{
		AccountID:    req.AccountID,
		SecurityID:   req.SecurityID,
		Date:         date,
		TxnID:        req.TxnID,
		Shares:       req.Shares,
		CostPerShare: req.CostPerShare,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, lot)
}

// Dispose matches a disposal against open lots and reports the realized
// gain or loss
func (h *LotHandler) Dispose(c *gin.Context) {
	var req DisposeLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	var policy lots.DisposalPolicy
	if req.Policy != "" {
		if policy, err = lots.ParseDisposalPolicy(req.Policy); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}

	result, err := h.costBasis.Dispose(c.Request.Context(), engine.Disposal{
		AccountID:  req.AccountID,
		SecurityID: req.SecurityID,
		Date:       date,
		TxnID:      req.TxnID,
		Shares:     req.Shares,
		Proceeds:   req.Proceeds,
		Policy:     policy,
		LotIDs:     req.LotIDs,
	})
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, result)
}

// Holdings retrieves the lots held in an account
func (h *LotHandler) Holdings(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	holdings, err := h.costBasis.Holdings(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, holdings)
}

// Position reports the open share count and cost basis of one security in
// one account
func (h *LotHandler) Position(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Query("account_id"), 10, 64)
	if err != nil || accountID < 1 {
		RespondBadRequest(c, "Invalid account_id")
		return
	}
	securityID, err := strconv.ParseInt(c.Query("security_id"), 10, 64)
	if err != nil || securityID < 1 {
		RespondBadRequest(c, "Invalid security_id")
		return
	}

	shares, costBasis, err := h.costBasis.OpenPosition(c.Request.Context(), accountID, securityID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, PositionResponse{
		AccountID:  accountID,
		SecurityID: securityID,
		Shares:     shares,
		CostBasis:  costBasis,
	})
}
