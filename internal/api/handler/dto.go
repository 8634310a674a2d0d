package handler

import (
	"github.com/shopspring/decimal"

	"github.com/oaif-format/oaif/internal/domain/ledger"
)

// CreateAccountRequest represents a request to create a chart-of-accounts node
type CreateAccountRequest struct {
	Type     string `json:"type" binding:"required"`
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	ParentID int64  `json:"parent_id"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// CreatePartyRequest represents a request to create a customer, vendor or employee
type CreatePartyRequest struct {
	Kind  string `json:"kind" binding:"required,oneof=customer vendor employee"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

// CreateItemRequest represents a request to create a product or service item
type CreateItemRequest struct {
	Name      string          `json:"name" binding:"required"`
	ParentID  int64           `json:"parent_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateTaxCodeRequest represents a request to create a tax code
type CreateTaxCodeRequest struct {
	Name string          `json:"name" binding:"required"`
	Rate decimal.Decimal `json:"rate"`
}

// CreateSecurityRequest represents a request to create a security
type CreateSecurityRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Name     string `json:"name"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// TransactionLineRequest represents one signed line of a transaction
type TransactionLineRequest struct {
	LineNumber    int             `json:"line_number"`
	AccountID     int64           `json:"account_id"`
	ItemID        int64           `json:"item_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	SecurityID    int64           `json:"security_id"`
	Shares        decimal.Decimal `json:"shares"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	LotID         int64           `json:"lot_id"`
}

// PostTransactionRequest represents a request to post a new transaction
type PostTransactionRequest struct {
	Type         string                   `json:"type" binding:"required"`
	Date         string                   `json:"date" binding:"required"`
	DocNumber    string                   `json:"doc_number"`
	Memo         string                   `json:"memo"`
	Currency     string                   `json:"currency" binding:"required,len=3"`
	ExchangeRate decimal.Decimal          `json:"exchange_rate"`
	CustomerID   int64                    `json:"customer_id"`
	VendorID     int64                    `json:"vendor_id"`
	EmployeeID   int64                    `json:"employee_id"`
	Lines        []TransactionLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// TransactionResponse represents a transaction with its derived status
type TransactionResponse struct {
	*ledger.Header
	Status ledger.Status  `json:"status"`
	Lines  []*ledger.Line `json:"lines,omitempty"`
}

// LinkTransactionsRequest represents a request to apply one transaction
// against another
type LinkTransactionsRequest struct {
	FromHeaderID int64           `json:"from_header_id" binding:"required"`
	ToHeaderID   int64           `json:"to_header_id" binding:"required"`
	LinkType     string          `json:"link_type" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// TrialBalanceResponse represents the trial-balance report
type TrialBalanceResponse struct {
	Accounts []*ledger.AccountTotal `json:"accounts"`
	Total    decimal.Decimal        `json:"total"`
}

// BalanceDriftResponse represents the cached-versus-derived balance of one
// account
type BalanceDriftResponse struct {
	AccountID int64           `json:"account_id"`
	Cached    decimal.Decimal `json:"cached"`
	Derived   decimal.Decimal `json:"derived"`
	Drift     decimal.Decimal `json:"drift"`
	InSync    bool            `json:"in_sync"`
}

// AcquireLotRequest represents a request to open an investment lot
type AcquireLotRequest struct {
	AccountID    int64           `json:"account_id" binding:"required"`
	SecurityID   int64           `json:"security_id" binding:"required"`
	Date         string          `json:"date" binding:"required"`
	TxnID        int64           `json:"txn_id"`
	Shares       decimal.Decimal `json:"shares" binding:"required"`
	CostPerShare decimal.Decimal `json:"cost_per_share"`
}

// DisposeLotsRequest represents a request to dispose shares against open lots
type DisposeLotsRequest struct {
	AccountID  int64           `json:"account_id" binding:"required"`
	SecurityID int64           `json:"security_id" binding:"required"`
	Date       string          `json:"date" binding:"required"`
	TxnID      int64           `json:"txn_id"`
	Shares     decimal.Decimal `json:"shares" binding:"required"`
	Proceeds   decimal.Decimal `json:"proceeds"`
	Policy     string          `json:"policy"`
	LotIDs     []int64         `json:"lot_ids"`
}

// PositionResponse represents the open position in one security
type PositionResponse struct {
	AccountID  int64           `json:"account_id"`
	SecurityID int64           `json:"security_id"`
	Shares     decimal.Decimal `json:"shares"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
}

// TypeDefinitionResponse represents one type-registry entry. The ID is local
// to the open file; the name is the portable identity.
type TypeDefinitionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IsStandard  bool   `json:"is_standard"`
	Description string `json:"description,omitempty"`
}

// RegisterTypeRequest represents a request to register a namespaced type name
type RegisterTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// SetExtensionFieldRequest represents a request to set an extension field on
// a parent record
type SetExtensionFieldRequest struct {
	Namespace string `json:"namespace" binding:"required"`
	Name      string `json:"name" binding:"required"`
	ValueType string `json:"value_type" binding:"required"`
	Value     string `json:"value"`
}

// SetMetadataRequest represents a request to set a file metadata value
type SetMetadataRequest struct {
	Value string `json:"value" binding:"required"`
}

// ListTransactionsParams represents filter parameters for transaction listing
type ListTransactionsParams struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Limit  int    `form:"limit,default=50" binding:"min=1,max=500"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
}
