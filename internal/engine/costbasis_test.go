package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/lots"
)

// seedPosition opens the canonical two-lot position: 100 shares at 10 on
// June 1st, then 50 shares at 12 on September 1st.
func seedPosition(t *testing.T, h *Handle) (accountID, securityID int64, lot1, lot2 *lots.Lot) {
	t.Helper()
	ctx := context.Background()

	brokerage := mustAccount(t, h, "INVESTMENT", "Brokerage", "1500")
	sec, err := entity.NewSecurity("ACME", "ACME Corp", "USD")
	require.NoError(t, err)
	require.NoError(t, h.Entities.CreateSecurity(ctx, sec))

	lot1, err = h.CostBasis.Acquire(ctx, Acquisition{
		AccountID:    brokerage.ID,
		SecurityID:   sec.ID,
		Date:         date(t, "2023-06-01"),
		Shares:       dec("100"),
		CostPerShare: dec("10"),
	})
	require.NoError(t, err)

	lot2, err = h.CostBasis.Acquire(ctx, Acquisition{
		AccountID:    brokerage.ID,
		SecurityID:   sec.ID,
		Date:         date(t, "2023-09-01"),
		Shares:       dec("50"),
		CostPerShare: dec("12"),
	})
	require.NoError(t, err)

	return brokerage.ID, sec.ID, lot1, lot2
}

func TestDispose_FIFO(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, lot1, lot2 := seedPosition(t, h)

	result, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("120"),
		Proceeds:   dec("1500"),
		Policy:     lots.FIFO,
	})
	require.NoError(t, err)

	// Cost basis 100*10 + 20*12 = 1240 against proceeds 1500.
	assert.Equal(t, "260", result.RealizedGainLoss.String())
	require.Len(t, result.Consumed, 2)
	assert.Equal(t, lot1.ID, result.Consumed[0].LotID)
	assert.Equal(t, "100", result.Consumed[0].SharesTaken.String())
	assert.Equal(t, "20", result.Consumed[1].SharesTaken.String())

	// The oldest lot closed with its disposal stamped; the newer one stays
	// open with 30 shares.
	closed, err := h.CostBasis.Holdings(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.False(t, closed[0].Open())
	require.NotNil(t, closed[0].DisposalDate)
	assert.Equal(t, "2024-02-01", closed[0].DisposalDate.Format("2006-01-02"))

	assert.Equal(t, lot2.ID, closed[1].ID)
	assert.True(t, closed[1].Open())

	shares, basis, err := h.CostBasis.OpenPosition(ctx, accountID, securityID)
	require.NoError(t, err)
	assert.Equal(t, "30", shares.String())
	assert.Equal(t, "360", basis.String())
}

func TestDispose_LIFO(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, lot1, lot2 := seedPosition(t, h)

	result, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("60"),
		Proceeds:   dec("720"),
		Policy:     lots.LIFO,
	})
	require.NoError(t, err)

	// Cost basis 50*12 + 10*10 = 700 against proceeds 720.
	assert.Equal(t, "20", result.RealizedGainLoss.String())
	require.Len(t, result.Consumed, 2)
	assert.Equal(t, lot2.ID, result.Consumed[0].LotID, "newest lot is consumed first")
	assert.Equal(t, "50", result.Consumed[0].SharesTaken.String())
	assert.Equal(t, lot1.ID, result.Consumed[1].LotID)
	assert.Equal(t, "10", result.Consumed[1].SharesTaken.String())
}

func TestDispose_SpecificLot(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, lot1, lot2 := seedPosition(t, h)

	result, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("40"),
		Proceeds:   dec("520"),
		Policy:     lots.SpecificLot,
		LotIDs:     []int64{lot2.ID},
	})
	require.NoError(t, err)

	// Only the named lot is touched: 40*12 = 480 against 520.
	assert.Equal(t, "40", result.RealizedGainLoss.String())
	require.Len(t, result.Consumed, 1)
	assert.Equal(t, lot2.ID, result.Consumed[0].LotID)

	untouched, err := h.CostBasis.Holdings(ctx, accountID)
	require.NoError(t, err)
	for _, lot := range untouched {
		if lot.ID == lot1.ID {
			assert.Equal(t, "100", lot.SharesRemaining.String())
		}
	}

	t.Run("naming no lots is an error", func(t *testing.T) {
		_, err := h.CostBasis.Dispose(ctx, Disposal{
			AccountID:  accountID,
			SecurityID: securityID,
			Date:       date(t, "2024-02-02"),
			Shares:     dec("1"),
			Proceeds:   dec("13"),
			Policy:     lots.SpecificLot,
		})
		assert.Error(t, err)
	})
}

func TestDispose_InsufficientSharesLeavesLotsUntouched(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, _, _ := seedPosition(t, h)

	_, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("200"),
		Proceeds:   dec("2600"),
		Policy:     lots.FIFO,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, lots.InsufficientSharesError{})

	var insufficient lots.InsufficientSharesError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "200", insufficient.Requested.String())
	assert.Equal(t, "150", insufficient.Available.String())

	// The rejection mutated nothing.
	shares, basis, err := h.CostBasis.OpenPosition(ctx, accountID, securityID)
	require.NoError(t, err)
	assert.Equal(t, "150", shares.String())
	assert.Equal(t, "1600", basis.String())
}

func TestDispose_ProceedsAllocationConserved(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, _, _ := seedPosition(t, h)

	// An awkward proceeds figure whose proportional split does not divide
	// evenly; the allocations must still sum exactly to it.
	proceeds := dec("1333.33")
	result, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("130"),
		Proceeds:   proceeds,
		Policy:     lots.FIFO,
	})
	require.NoError(t, err)

	allocated := decimal.Zero
	costBasis := decimal.Zero
	for _, c := range result.Consumed {
		allocated = allocated.Add(c.ProceedsAllocated)
		costBasis = costBasis.Add(c.CostBasis)
	}
	assert.True(t, allocated.Equal(proceeds), "allocated %s, want %s", allocated, proceeds)
	assert.True(t, result.RealizedGainLoss.Equal(proceeds.Sub(costBasis)))
}

func TestDispose_DefaultPolicy(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, lot1, _ := seedPosition(t, h)

	// No policy on the request: the handle default (FIFO) applies.
	result, err := h.CostBasis.Dispose(ctx, Disposal{
		AccountID:  accountID,
		SecurityID: securityID,
		Date:       date(t, "2024-02-01"),
		Shares:     dec("10"),
		Proceeds:   dec("110"),
	})
	require.NoError(t, err)
	require.Len(t, result.Consumed, 1)
	assert.Equal(t, lot1.ID, result.Consumed[0].LotID)
}

func TestAcquire_Validation(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)
	accountID, securityID, _, _ := seedPosition(t, h)

	_, err := h.CostBasis.Acquire(ctx, Acquisition{
		AccountID:    accountID,
		SecurityID:   securityID,
		Date:         date(t, "2024-01-01"),
		Shares:       dec("-5"),
		CostPerShare: dec("10"),
	})
	assert.Error(t, err, "negative share count")

	_, err = h.CostBasis.Acquire(ctx, Acquisition{
		AccountID:    accountID,
		SecurityID:   31337,
		Date:         date(t, "2024-01-01"),
		Shares:       dec("5"),
		CostPerShare: dec("10"),
	})
	assert.ErrorIs(t, err, entity.ErrSecurityNotFound{})
}
