package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testMeta() persistence.CreateMeta {
	return persistence.CreateMeta{
		CreatedBy:    "oaif-test",
		SourceSystem: "unit-tests",
		CompanyName:  "Example Company Inc.",
		BaseCurrency: "USD",
	}
}

func newTestHandle(t *testing.T) *Handle {
	t.Helper()

	path := filepath.Join(t.TempDir(), "engine_test.oaif")
	h, err := Create(context.Background(), testLogger(), path, testMeta(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// mustAccount creates an account of the named standard type.
func mustAccount(t *testing.T, h *Handle, typeName, name, code string) *entity.Account {
	t.Helper()

	typeID, err := h.AccountTypes.IDOf(typeName)
	require.NoError(t, err)

	acc, err := entity.NewAccount(typeID, name, code, "USD")
	require.NoError(t, err)
	require.NoError(t, h.Entities.CreateAccount(context.Background(), acc))
	return acc
}

func mustParty(t *testing.T, h *Handle, kind entity.PartyKind, name string) *entity.Party {
	t.Helper()

	p, err := entity.NewParty(kind, name, "")
	require.NoError(t, err)
	require.NoError(t, h.Entities.CreateParty(context.Background(), p))
	return p
}

// mustPost posts a balanced journal between two accounts.
func mustPost(t *testing.T, h *Handle, debitID, creditID int64, amount, day string) *ledger.Header {
	t.Helper()

	typeID, err := h.TransactionTypes.IDOf("JOURNAL")
	require.NoError(t, err)

	hd := &ledger.Header{TypeID: typeID, Date: date(t, day), Currency: "USD"}
	lines := []*ledger.Line{
		{AccountID: debitID, Amount: dec(amount)},
		{AccountID: creditID, Amount: dec(amount).Neg()},
	}
	require.NoError(t, h.Ledger.PostTransaction(context.Background(), hd, lines))
	return hd
}

func TestCreateOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roundtrip.oaif")

	h, err := Create(ctx, testLogger(), path, testMeta(), Options{})
	require.NoError(t, err)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	posted := mustPost(t, h, checking.ID, sales.ID, "1250.50", "2024-04-01")
	require.NoError(t, h.Close())

	// A fresh handle over the same file sees identical state.
	h2, err := Open(ctx, testLogger(), path, Options{})
	require.NoError(t, err)
	defer h2.Close()

	txn, err := h2.Ledger.GetTransaction(ctx, posted.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, txn.Header.Status())
	require.Len(t, txn.Lines, 2)
	assert.Equal(t, "1250.5", txn.Lines[0].Amount.String())

	acc, err := h2.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.Equal(t, "1250.5", acc.Balance.String())

	// The file-local ids resolve to the same names after reopen.
	name := h2.AccountTypes.LookupName(acc.TypeID)
	assert.Equal(t, "BANK", name)

	report, err := h2.Validator.ValidateFile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid())
	assert.Empty(t, report.Issues)
}

func TestOpen_ReadOnly(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "readonly.oaif")

	h, err := Create(ctx, testLogger(), path, testMeta(), Options{})
	require.NoError(t, err)
	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	mustPost(t, h, checking.ID, sales.ID, "100", "2024-01-05")
	require.NoError(t, h.Close())

	ro, err := Open(ctx, testLogger(), path, Options{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	// Reads and validation work against a read-only handle.
	report, err := ro.Validator.ValidateFile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Valid())
	assert.Equal(t, 1, report.HeadersChecked)

	// Writes do not: posting a balanced journal must be rejected by
	// the read-only connection, leaving the file untouched.
	typeID, err := ro.TransactionTypes.IDOf("JOURNAL")
	require.NoError(t, err)
	hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-01-06"), Currency: "USD"}
	lines := []*ledger.Line{
		{AccountID: checking.ID, Amount: dec("50")},
		{AccountID: sales.ID, Amount: dec("50").Neg()},
	}
	require.Error(t, ro.Ledger.PostTransaction(ctx, hd, lines))

	txns, err := ro.Ledger.ListTransactions(ctx, time.Time{}, time.Time{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestHandle_Metadata(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	meta, err := h.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", meta[persistence.MetaBaseCurrency])
	assert.Equal(t, persistence.FormatVersion, meta["oaif_version"])

	require.NoError(t, h.SetMetadata(ctx, "fiscal_year_start", "01-01"))
	meta, err = h.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "01-01", meta["fiscal_year_start"])
}
