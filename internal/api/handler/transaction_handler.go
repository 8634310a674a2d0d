package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/engine"
)

// TransactionHandler handles HTTP requests for posting, reading and settling
// transactions
type TransactionHandler struct {
	ledgerService *engine.LedgerService
	txnTypes      *engine.TypeRegistry
	logger        *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, ledgerService *engine.LedgerService, txnTypes *engine.TypeRegistry) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		txnTypes:      txnTypes,
		logger:        logger,
	}
}

// Post validates and posts a new transaction atomically
func (h *TransactionHandler) Post(c *gin.Context) {
	var req PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	typeID, err := h.txnTypes.IDOf(req.Type)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	header := &ledger.Header{
		TypeID:       typeID,
		Date:         date,
		DocNumber:    req.DocNumber,
		Memo:         req.Memo,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
		CustomerID:   req.CustomerID,
		VendorID:     req.VendorID,
		EmployeeID:   req.EmployeeID,
	}

	lines := make([]*ledger.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = &ledger.Line{
			LineNumber:    l.LineNumber,
			AccountID:     l.AccountID,
			ItemID:        l.ItemID,
			Description:   l.Description,
			Amount:        l.Amount,
			SecurityID:    l.SecurityID,
			Shares:        l.Shares,
			PricePerShare: l.PricePerShare,
			LotID:         l.LotID,
		}
	}

	if err := h.ledgerService.PostTransaction(c.Request.Context(), header, lines); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, TransactionResponse{Header: header, Status: header.Status(), Lines: lines})
}

// GetByID retrieves a transaction with its lines, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, TransactionResponse{Header: txn.Header, Status: txn.Header.Status(), Lines: txn.Lines})
}

// List retrieves transaction headers filtered by date range
func (h *TransactionHandler) List(c *gin.Context) {
	var params ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	var from, to time.Time
	var err error
	if params.From != "" {
		if from, err = parseDate(params.From); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}
	if params.To != "" {
		if to, err = parseDate(params.To); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}

	headers, err := h.ledgerService.ListTransactions(c.Request.Context(), from, to, params.Limit, params.Offset)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]TransactionResponse, len(headers))
	for i, hd := range headers {
		responses[i] = TransactionResponse{Header: hd, Status: hd.Status()}
	}
	RespondOK(c, responses)
}

// Void voids a transaction, keeping it in the file for the audit trail
func (h *TransactionHandler) Void(c *gin.Context) {
	h.transition(c, h.ledgerService.VoidTransaction)
}

// MarkPaid marks a posted transaction as paid
func (h *TransactionHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.ledgerService.MarkPaid)
}

// Close marks a posted transaction as closed
func (h *TransactionHandler) Close(c *gin.Context) {
	h.transition(c, h.ledgerService.CloseTransaction)
}

func (h *TransactionHandler) transition(c *gin.Context, fn func(ctx context.Context, id int64) error) {
	id, err := idParam(c, "id")
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, TransactionResponse{Header: txn.Header, Status: txn.Header.Status()})
}

// Link applies an amount from one transaction against another
func (h *TransactionHandler) Link(c *gin.Context) {
	var req LinkTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	link, err := h.ledgerService.LinkTransactions(c.Request.Context(), req.FromHeaderID, req.ToHeaderID, req.LinkType, req.Amount)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, link)
}

// TrialBalance reports per-account debit and credit totals over posted,
// non-voided lines
func (h *TransactionHandler) TrialBalance(c *gin.Context) {
	accounts, total, err := h.ledgerService.TrialBalance(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, TrialBalanceResponse{Accounts: accounts, Total: total})
}
