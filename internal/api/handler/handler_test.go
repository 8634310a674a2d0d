package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaif-format/oaif/internal/engine"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestHandle(t *testing.T) *engine.Handle {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handler_test.oaif")
	h, err := engine.Create(context.Background(), testLogger(), path, persistence.CreateMeta{
		CreatedBy:    "oaif-test",
		SourceSystem: "unit-tests",
		CompanyName:  "Example Company Inc.",
		BaseCurrency: "USD",
	}, engine.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the data field of the response envelope into out.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data, "'data' field should not be nil")

	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(dataBytes, out))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *ErrorInfo {
	t.Helper()

	var envelope Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error, "'error' field should not be nil")
	return envelope.Error
}

func TestAccountHandler_Create(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)
	handler := NewAccountHandler(logger, h.Entities, h.AccountTypes)

	router := setupTestRouter()
	router.POST("/accounts", handler.Create)

	t.Run("Success", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/accounts", CreateAccountRequest{
			Type:     "BANK",
			Code:     "1000",
			Name:     "Operating Checking",
			Currency: "USD",
		})

		assert.Equal(t, http.StatusCreated, rr.Code)

		var got struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Currency string `json:"currency"`
		}
		decodeData(t, rr, &got)
		assert.NotZero(t, got.ID)
		assert.Equal(t, "Operating Checking", got.Name)
		assert.Equal(t, "USD", got.Currency)
	})

	t.Run("UnknownTypeName", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/accounts", CreateAccountRequest{
			Type:     "NOT_A_TYPE",
			Name:     "Mystery",
			Currency: "USD",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "UNKNOWN_TYPE", decodeError(t, rr).Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/accounts", gin.H{"name": "No type or currency"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAccountHandler_GetByID(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)
	handler := NewAccountHandler(logger, h.Entities, h.AccountTypes)

	router := setupTestRouter()
	router.POST("/accounts", handler.Create)
	router.GET("/accounts/:id", handler.GetByID)

	rr := doJSON(t, router, http.MethodPost, "/accounts", CreateAccountRequest{
		Type:     "BANK",
		Name:     "Savings",
		Currency: "USD",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("Found", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/accounts/1", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/accounts/9999", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/accounts/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTransactionHandler_PostAndLifecycle(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)

	accountHandler := NewAccountHandler(logger, h.Entities, h.AccountTypes)
	txnHandler := NewTransactionHandler(logger, h.Ledger, h.TransactionTypes)

	router := setupTestRouter()
	router.POST("/accounts", accountHandler.Create)
	router.POST("/transactions", txnHandler.Post)
	router.GET("/transactions/:id", txnHandler.GetByID)
	router.POST("/transactions/:id/void", txnHandler.Void)
	router.GET("/reports/trial-balance", txnHandler.TrialBalance)

	for _, acc := range []CreateAccountRequest{
		{Type: "BANK", Code: "1000", Name: "Checking", Currency: "USD"},
		{Type: "INCOME", Code: "4000", Name: "Sales", Currency: "USD"},
	} {
		rr := doJSON(t, router, http.MethodPost, "/accounts", acc)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	postReq := PostTransactionRequest{
		Type:     "JOURNAL",
		Date:     "2024-03-15",
		Memo:     "March receipts",
		Currency: "USD",
		Lines: []TransactionLineRequest{
			{AccountID: 1, Amount: decimal.RequireFromString("150")},
			{AccountID: 2, Amount: decimal.RequireFromString("-150")},
		},
	}

	t.Run("Post", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/transactions", postReq)
		assert.Equal(t, http.StatusCreated, rr.Code)

		var got TransactionResponse
		decodeData(t, rr, &got)
		assert.Equal(t, "POSTED", string(got.Status))
		assert.Len(t, got.Lines, 2)
	})

	t.Run("Unbalanced", func(t *testing.T) {
		bad := postReq
		bad.Lines = []TransactionLineRequest{
			{AccountID: 1, Amount: decimal.RequireFromString("150")},
			{AccountID: 2, Amount: decimal.RequireFromString("-100")},
		}
		rr := doJSON(t, router, http.MethodPost, "/transactions", bad)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "UNBALANCED_TRANSACTION", decodeError(t, rr).Code)
	})

	t.Run("GetByID", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/transactions/1", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var got TransactionResponse
		decodeData(t, rr, &got)
		assert.Equal(t, "March receipts", got.Memo)
	})

	t.Run("TrialBalance", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/reports/trial-balance", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var got TrialBalanceResponse
		decodeData(t, rr, &got)
		assert.True(t, got.Total.IsZero())
		assert.Len(t, got.Accounts, 2)
	})

	t.Run("VoidTwiceConflicts", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/transactions/1/void", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = doJSON(t, router, http.MethodPost, "/transactions/1/void", nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestExtensionHandler_SetListDelete(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)

	accountHandler := NewAccountHandler(logger, h.Entities, h.AccountTypes)
	extHandler := NewExtensionHandler(logger, h.Extensions)

	router := setupTestRouter()
	router.POST("/accounts", accountHandler.Create)
	router.PUT("/extensions/:table/:id", extHandler.Set)
	router.GET("/extensions/:table/:id", extHandler.List)
	router.DELETE("/extensions/:table/:id/:namespace/:name", extHandler.Delete)

	rr := doJSON(t, router, http.MethodPost, "/accounts", CreateAccountRequest{
		Type:     "BANK",
		Name:     "Checking",
		Currency: "USD",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("Set", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPut, "/extensions/account/1", SetExtensionFieldRequest{
			Namespace: "vendor.acme",
			Name:      "cost_center",
			ValueType: "text",
			Value:     "CC-100",
		})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("List", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/extensions/account/1", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var got []struct {
			Namespace string `json:"namespace"`
			Name      string `json:"name"`
			Value     string `json:"value"`
		}
		decodeData(t, rr, &got)
		require.Len(t, got, 1)
		assert.Equal(t, "CC-100", got[0].Value)
	})

	t.Run("RejectsUnknownParentTable", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPut, "/extensions/oaif_metadata/1", SetExtensionFieldRequest{
			Namespace: "vendor.acme",
			Name:      "x",
			ValueType: "text",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/extensions/account/1/vendor.acme/cost_center", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = doJSON(t, router, http.MethodGet, "/extensions/account/1", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestValidationHandler_ValidateFile(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)
	handler := NewValidationHandler(logger, h.Validator)

	router := setupTestRouter()
	router.POST("/validate", handler.ValidateFile)

	rr := doJSON(t, router, http.MethodPost, "/validate", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Valid          bool   `json:"valid"`
		HeadersChecked int    `json:"headers_checked"`
		RunID          string `json:"run_id"`
	}
	decodeData(t, rr, &got)
	assert.True(t, got.Valid)
	assert.Zero(t, got.HeadersChecked)
	assert.NotEmpty(t, got.RunID)
}

func TestTypeHandler_Register(t *testing.T) {
	logger := testLogger()
	h := newTestHandle(t)
	handler := NewTypeHandler(logger, h.AccountTypes, h.TransactionTypes)

	router := setupTestRouter()
	router.POST("/types/transaction", handler.RegisterTransactionType)
	router.GET("/types/transaction", handler.ListTransactionTypes)

	t.Run("Register", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/types/transaction", RegisterTypeRequest{
			Name:        "vendor.acme.RETAINER",
			Description: "Retainer draw-down",
		})
		assert.Equal(t, http.StatusCreated, rr.Code)

		var got TypeDefinitionResponse
		decodeData(t, rr, &got)
		assert.False(t, got.IsStandard)
		assert.NotZero(t, got.ID)
	})

	t.Run("DuplicateConflicts", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/types/transaction", RegisterTypeRequest{
			Name: "vendor.acme.RETAINER",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("MalformedName", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/types/transaction", RegisterTypeRequest{
			Name: "lowercase_name",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("List", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/types/transaction", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var got []TypeDefinitionResponse
		decodeData(t, rr, &got)
		names := make(map[string]bool, len(got))
		for _, def := range got {
			names[def.Name] = true
		}
		assert.True(t, names["INVOICE"])
		assert.True(t, names["vendor.acme.RETAINER"])
	})
}
