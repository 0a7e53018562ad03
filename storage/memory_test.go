package storage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stablecore/native/stable"
)

func TestMemoryStateRoundTrip(t *testing.T) {
	store := NewMemory()

	missing, err := store.GetState()
	require.NoError(t, err)
	require.Nil(t, missing)

	s := &stable.State{}
	s.Reserve.Balance = decimal.NewFromInt(100)
	s.Pool.ScaleFactor = decimal.NewFromInt(1)
	require.NoError(t, store.PutState(s))

	got, err := store.GetState()
	require.NoError(t, err)
	require.True(t, got.Reserve.Balance.Equal(decimal.NewFromInt(100)))
}

func TestMemoryClonesOnBothPaths(t *testing.T) {
	store := NewMemory()
	s := &stable.State{}
	s.Reserve.Balance = decimal.NewFromInt(100)
	require.NoError(t, store.PutState(s))

	// Mutating the caller's copy after Put must not reach the store.
	s.Reserve.Balance = decimal.NewFromInt(1)
	got, err := store.GetState()
	require.NoError(t, err)
	require.True(t, got.Reserve.Balance.Equal(decimal.NewFromInt(100)))

	// Mutating a fetched copy must not write through either; an aborted
	// operation leaves the store exactly as it was.
	got.Reserve.Balance = decimal.NewFromInt(2)
	again, err := store.GetState()
	require.NoError(t, err)
	require.True(t, again.Reserve.Balance.Equal(decimal.NewFromInt(100)))
}

func TestMemoryUserAccounts(t *testing.T) {
	store := NewMemory()

	missing, err := store.GetUserAccount("alice")
	require.NoError(t, err)
	require.Nil(t, missing)

	user := &stable.UserAccount{Address: "alice", FreeBalance: decimal.NewFromInt(5)}
	require.NoError(t, store.PutUserAccount(user))

	got, err := store.GetUserAccount("alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Address)
	require.True(t, got.FreeBalance.Equal(decimal.NewFromInt(5)))

	// Read-your-writes within an operation.
	got.FreeBalance = decimal.NewFromInt(7)
	require.NoError(t, store.PutUserAccount(got))
	again, err := store.GetUserAccount("alice")
	require.NoError(t, err)
	require.True(t, again.FreeBalance.Equal(decimal.NewFromInt(7)))
}
