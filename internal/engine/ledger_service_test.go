package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
)

func TestPostTransaction_UpdatesBalances(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")

	hd := mustPost(t, h, checking.ID, sales.ID, "500", "2024-03-01")
	assert.NotZero(t, hd.ID)
	assert.Equal(t, ledger.StatusPosted, hd.Status())
	assert.Equal(t, "500", hd.TotalAmount.String())

	acc, err := h.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.Equal(t, "500", acc.Balance.String())

	acc, err = h.Entities.GetAccount(ctx, sales.ID)
	require.NoError(t, err)
	assert.Equal(t, "-500", acc.Balance.String())

	// The cache matches the derived truth.
	drift, err := h.Entities.RecomputeBalance(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, drift.InSync())
}

func TestPostTransaction_BalanceTolerance(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")

	typeID, err := h.TransactionTypes.IDOf("JOURNAL")
	require.NoError(t, err)

	t.Run("off by a cent is rejected", func(t *testing.T) {
		hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-03-01"), Currency: "USD"}
		lines := []*ledger.Line{
			{AccountID: checking.ID, Amount: dec("100.00")},
			{AccountID: sales.ID, Amount: dec("-99.99")},
		}
		err := h.Ledger.PostTransaction(ctx, hd, lines)
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.UnbalancedTransactionError{})

		// Nothing landed and the header is reusable.
		assert.Zero(t, hd.ID)
		assert.False(t, hd.Posted)
	})

	t.Run("sub-tolerance residue is accepted", func(t *testing.T) {
		hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-03-01"), Currency: "USD"}
		lines := []*ledger.Line{
			{AccountID: checking.ID, Amount: dec("100.004")},
			{AccountID: sales.ID, Amount: dec("-100.00")},
		}
		require.NoError(t, h.Ledger.PostTransaction(ctx, hd, lines))
	})
}

func TestPostTransaction_DuplicateLineNumbers(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")

	typeID, err := h.TransactionTypes.IDOf("JOURNAL")
	require.NoError(t, err)

	t.Run("caller-supplied duplicates are rejected before the write", func(t *testing.T) {
		hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-03-01"), Currency: "USD"}
		lines := []*ledger.Line{
			{LineNumber: 1, AccountID: checking.ID, Amount: dec("100")},
			{LineNumber: 1, AccountID: sales.ID, Amount: dec("-100")},
		}
		err := h.Ledger.PostTransaction(ctx, hd, lines)
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.DuplicateLineNumberError{})
		assert.ErrorIs(t, err, ledger.DuplicateLineNumberError{LineNumber: 1})

		// Nothing landed and the header is reusable.
		assert.Zero(t, hd.ID)
		assert.False(t, hd.Posted)
	})

	t.Run("distinct explicit numbers are accepted", func(t *testing.T) {
		hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-03-02"), Currency: "USD"}
		lines := []*ledger.Line{
			{LineNumber: 3, AccountID: checking.ID, Amount: dec("25")},
			{LineNumber: 7, AccountID: sales.ID, Amount: dec("-25")},
		}
		require.NoError(t, h.Ledger.PostTransaction(ctx, hd, lines))
	})
}

func TestPostTransaction_MissingReferences(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	typeID, err := h.TransactionTypes.IDOf("JOURNAL")
	require.NoError(t, err)

	hd := &ledger.Header{TypeID: typeID, Date: date(t, "2024-03-01"), Currency: "USD"}
	lines := []*ledger.Line{
		{AccountID: checking.ID, Amount: dec("50")},
		{AccountID: 9999, Amount: dec("-50")},
	}
	err = h.Ledger.PostTransaction(ctx, hd, lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.MissingReferenceError{Kind: "account"})

	// The rejected batch left no trace: the good account is untouched.
	acc, err := h.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestPostTransaction_PartyRules(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	ar := mustAccount(t, h, "ACCOUNTS_RECEIVABLE", "AR", "1200")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	customer := mustParty(t, h, entity.PartyCustomer, "Globex Corp")
	vendor := mustParty(t, h, entity.PartyVendor, "Initech Supplies")

	invoiceType, err := h.TransactionTypes.IDOf("INVOICE")
	require.NoError(t, err)

	lines := func() []*ledger.Line {
		return []*ledger.Line{
			{AccountID: ar.ID, Amount: dec("250")},
			{AccountID: sales.ID, Amount: dec("-250")},
		}
	}

	t.Run("invoice without a customer is rejected", func(t *testing.T) {
		hd := &ledger.Header{TypeID: invoiceType, Date: date(t, "2024-03-01"), Currency: "USD"}
		err := h.Ledger.PostTransaction(ctx, hd, lines())
		assert.ErrorIs(t, err, ledger.InvalidPartyError{})
	})

	t.Run("two parties are rejected", func(t *testing.T) {
		hd := &ledger.Header{
			TypeID:     invoiceType,
			Date:       date(t, "2024-03-01"),
			Currency:   "USD",
			CustomerID: customer.ID,
			VendorID:   vendor.ID,
		}
		err := h.Ledger.PostTransaction(ctx, hd, lines())
		assert.ErrorIs(t, err, ledger.InvalidPartyError{})
	})

	t.Run("wrong party kind is rejected", func(t *testing.T) {
		hd := &ledger.Header{
			TypeID:     invoiceType,
			Date:       date(t, "2024-03-01"),
			Currency:   "USD",
			CustomerID: vendor.ID,
		}
		err := h.Ledger.PostTransaction(ctx, hd, lines())
		assert.ErrorIs(t, err, ledger.InvalidPartyError{})
	})

	t.Run("valid invoice tracks the customer balance", func(t *testing.T) {
		hd := &ledger.Header{
			TypeID:     invoiceType,
			Date:       date(t, "2024-03-01"),
			Currency:   "USD",
			CustomerID: customer.ID,
		}
		require.NoError(t, h.Ledger.PostTransaction(ctx, hd, lines()))

		p, err := h.Entities.GetParty(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "250", p.Balance.String())
	})
}

func TestVoidTransaction(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	hd := mustPost(t, h, checking.ID, sales.ID, "300", "2024-03-10")

	require.NoError(t, h.Ledger.VoidTransaction(ctx, hd.ID))

	// The header and its lines stay in the file for the audit trail.
	txn, err := h.Ledger.GetTransaction(ctx, hd.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVoided, txn.Header.Status())
	assert.Len(t, txn.Lines, 2)

	// Its effect on the caches is backed out.
	acc, err := h.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())

	// Voiding twice is a state-machine violation.
	err = h.Ledger.VoidTransaction(ctx, hd.ID)
	require.Error(t, err)
	var transition ledger.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestTransitions_PaidAndClosedAreTerminal(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")

	t.Run("paid header cannot be voided", func(t *testing.T) {
		hd := mustPost(t, h, checking.ID, sales.ID, "100", "2024-03-01")
		require.NoError(t, h.Ledger.MarkPaid(ctx, hd.ID))

		err := h.Ledger.VoidTransaction(ctx, hd.ID)
		var transition ledger.InvalidTransitionError
		assert.ErrorAs(t, err, &transition)
	})

	t.Run("closed header cannot be paid", func(t *testing.T) {
		hd := mustPost(t, h, checking.ID, sales.ID, "100", "2024-03-02")
		require.NoError(t, h.Ledger.CloseTransaction(ctx, hd.ID))

		err := h.Ledger.MarkPaid(ctx, hd.ID)
		var transition ledger.InvalidTransitionError
		assert.ErrorAs(t, err, &transition)
	})
}

func TestLinkTransactions(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	ar := mustAccount(t, h, "ACCOUNTS_RECEIVABLE", "AR", "1200")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	customer := mustParty(t, h, entity.PartyCustomer, "Globex Corp")

	invoiceType, err := h.TransactionTypes.IDOf("INVOICE")
	require.NoError(t, err)
	paymentType, err := h.TransactionTypes.IDOf("PAYMENT")
	require.NoError(t, err)

	invoice := &ledger.Header{TypeID: invoiceType, Date: date(t, "2024-01-10"), Currency: "USD", CustomerID: customer.ID}
	require.NoError(t, h.Ledger.PostTransaction(ctx, invoice, []*ledger.Line{
		{AccountID: ar.ID, Amount: dec("500")},
		{AccountID: sales.ID, Amount: dec("-500")},
	}))

	payment := &ledger.Header{TypeID: paymentType, Date: date(t, "2024-01-20"), Currency: "USD", CustomerID: customer.ID}
	require.NoError(t, h.Ledger.PostTransaction(ctx, payment, []*ledger.Line{
		{AccountID: checking.ID, Amount: dec("600")},
		{AccountID: ar.ID, Amount: dec("-600")},
	}))

	t.Run("overapplied link is rejected", func(t *testing.T) {
		_, err := h.Ledger.LinkTransactions(ctx, invoice.ID, payment.ID, "payment", dec("600"))
		assert.ErrorIs(t, err, ledger.OverappliedLinkError{})
	})

	t.Run("partial applications accumulate up to the total", func(t *testing.T) {
		_, err := h.Ledger.LinkTransactions(ctx, invoice.ID, payment.ID, "payment", dec("300"))
		require.NoError(t, err)
		_, err = h.Ledger.LinkTransactions(ctx, invoice.ID, payment.ID, "payment", dec("200"))
		require.NoError(t, err)

		// 500 of 500 applied; one more cent would overapply.
		_, err = h.Ledger.LinkTransactions(ctx, invoice.ID, payment.ID, "payment", dec("0.01"))
		assert.ErrorIs(t, err, ledger.OverappliedLinkError{})
	})

	t.Run("links against a voided header are rejected", func(t *testing.T) {
		void := mustPost(t, h, checking.ID, sales.ID, "50", "2024-02-01")
		require.NoError(t, h.Ledger.VoidTransaction(ctx, void.ID))

		_, err := h.Ledger.LinkTransactions(ctx, void.ID, payment.ID, "payment", dec("10"))
		assert.Error(t, err)
	})
}

func TestTrialBalance(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	mustPost(t, h, checking.ID, sales.ID, "100", "2024-01-01")
	mustPost(t, h, checking.ID, sales.ID, "250", "2024-01-02")

	rows, total, err := h.Ledger.TrialBalance(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	require.Len(t, rows, 2)
	assert.Equal(t, "350", rows[0].Debits.String())
	assert.Equal(t, "350", rows[1].Credits.String())
}
