package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/types"
)

func TestEntityStore_CreateAccount(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	t.Run("unknown type id is rejected", func(t *testing.T) {
		acc, err := entity.NewAccount(987654, "Checking", "1000", "USD")
		require.NoError(t, err)
		err = h.Entities.CreateAccount(ctx, acc)

		var unknown types.UnknownTypeError
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("missing parent is rejected", func(t *testing.T) {
		typeID, err := h.AccountTypes.IDOf("BANK")
		require.NoError(t, err)

		acc, err := entity.NewAccount(typeID, "Checking", "1000", "USD")
		require.NoError(t, err)
		acc.ParentID = 4242
		err = h.Entities.CreateAccount(ctx, acc)
		assert.ErrorIs(t, err, entity.ErrAccountNotFound{})
	})
}

func TestEntityStore_ParentChain(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	root := mustAccount(t, h, "BANK", "Assets", "1")
	mid := mustAccount(t, h, "BANK", "Bank Accounts", "10")
	mid.ParentID = root.ID
	require.NoError(t, h.Entities.UpdateAccount(ctx, mid))

	leaf := mustAccount(t, h, "BANK", "Checking", "100")
	leaf.ParentID = mid.ID
	require.NoError(t, h.Entities.UpdateAccount(ctx, leaf))

	chain, err := h.Entities.ParentChain(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, mid.ID, chain[0].ID)
	assert.Equal(t, root.ID, chain[1].ID)

	// The root has no ancestry.
	chain, err = h.Entities.ParentChain(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestEntityStore_ParentCycleRejected(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	a := mustAccount(t, h, "BANK", "A", "1")
	b := mustAccount(t, h, "BANK", "B", "2")
	c := mustAccount(t, h, "BANK", "C", "3")

	b.ParentID = a.ID
	require.NoError(t, h.Entities.UpdateAccount(ctx, b))
	c.ParentID = b.ID
	require.NoError(t, h.Entities.UpdateAccount(ctx, c))

	t.Run("self parent", func(t *testing.T) {
		a.ParentID = a.ID
		err := h.Entities.UpdateAccount(ctx, a)
		var cycle entity.CycleDetectedError
		require.ErrorAs(t, err, &cycle)
		a.ParentID = 0
	})

	t.Run("closing a chain into a cycle", func(t *testing.T) {
		a.ParentID = c.ID
		err := h.Entities.UpdateAccount(ctx, a)
		var cycle entity.CycleDetectedError
		require.ErrorAs(t, err, &cycle)

		// The rejected edge never landed.
		got, err := h.Entities.GetAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.Zero(t, got.ParentID)
	})
}

func TestEntityStore_RecomputeAndRepairBalance(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	sales := mustAccount(t, h, "INCOME", "Sales", "4000")
	mustPost(t, h, checking.ID, sales.ID, "400", "2024-01-15")

	// Corrupt the cache behind the engine's back.
	checking.Balance = dec("999")
	require.NoError(t, h.Entities.UpdateAccount(ctx, checking))

	drift, err := h.Entities.RecomputeBalance(ctx, checking.ID)
	require.NoError(t, err)
	assert.False(t, drift.InSync())
	assert.Equal(t, "999", drift.Cached.String())
	assert.Equal(t, "400", drift.Derived.String())
	assert.Equal(t, "599", drift.Drift.String())

	// Recompute is read-only: the cache still holds the corrupt value.
	got, err := h.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.Equal(t, "999", got.Balance.String())

	// Repair rewrites the cache from the derived truth.
	_, err = h.Entities.RepairBalance(ctx, checking.ID)
	require.NoError(t, err)
	got, err = h.Entities.GetAccount(ctx, checking.ID)
	require.NoError(t, err)
	assert.Equal(t, "400", got.Balance.String())
}

func TestEntityStore_Securities(t *testing.T) {
	ctx := context.Background()
	h := newTestHandle(t)

	sec, err := entity.NewSecurity("ACME", "ACME Corp", "USD")
	require.NoError(t, err)
	require.NoError(t, h.Entities.CreateSecurity(ctx, sec))

	dup, err := entity.NewSecurity("ACME", "ACME impostor", "USD")
	require.NoError(t, err)
	assert.Error(t, h.Entities.CreateSecurity(ctx, dup), "duplicate symbol")
}

func TestEntityStore_ResolveAccountType(t *testing.T) {
	h := newTestHandle(t)

	checking := mustAccount(t, h, "BANK", "Checking", "1000")
	assert.Equal(t, "BANK", h.Entities.ResolveAccountType(checking))

	foreign := &entity.Account{TypeID: 987654}
	assert.Equal(t, types.PassthroughName, h.Entities.ResolveAccountType(foreign))
}
