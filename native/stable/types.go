package stable

import (
	"github.com/shopspring/decimal"
)

// ReserveState tracks the custodied reserve asset together with the last
// accepted oracle sample. Only direct redemption and pool claim settlement
// ever decrement Balance.
type ReserveState struct {
	// Balance is the total custodied reserve in reserve-asset units.
	Balance decimal.Decimal
	// Price is the last accepted oracle price in USD per reserve unit.
	Price decimal.Decimal
	// PriceTimestamp is the unix timestamp of the last accepted sample.
	// Zero means no sample has ever been accepted.
	PriceTimestamp int64
}

// SupplyState tracks outstanding token supplies and their net asset values.
// LiabilityNAV stays pinned while the stability coefficient is zero; the
// equity NAV is implied by the conservation invariant.
type SupplyState struct {
	Liability    decimal.Decimal
	Equity       decimal.Decimal
	LiabilityNAV decimal.Decimal
	EquityNAV    decimal.Decimal
}

// ObligationState records reserve-asset units promised to pool depositors
// but not yet paid out. The stability pool ledger is its sole writer.
type ObligationState struct {
	Total decimal.Decimal
}

// PoolState holds the stability pool's scaled-share bookkeeping.
//
// The actual pooled liability is ScaledTotal * ScaleFactor. ScaleFactor is
// monotonically non-increasing (it shrinks on every pro-rata burn) and
// ObligationIndex is monotonically non-decreasing.
type PoolState struct {
	ScaleFactor     decimal.Decimal
	ScaledTotal     decimal.Decimal
	ObligationIndex decimal.Decimal
}

// State aggregates every protocol singleton. Operations mutate it as one
// atomic unit; no partial application of effects is ever persisted.
type State struct {
	Reserve    ReserveState
	Supply     SupplyState
	Obligation ObligationState
	Pool       PoolState
}

// Clone returns a deep copy of the state. Decimal values are immutable so a
// shallow field copy is sufficient.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// UserAccount is a single depositor's record. FreeBalance holds liability
// tokens outside the pool, ScaledShares the in-pool stake in scaled units
// and IndexSnapshot the obligation index at last settlement. The record
// survives both balances reaching zero because accrued-but-unclaimed credit
// may still be owed.
type UserAccount struct {
	Address       string
	FreeBalance   decimal.Decimal
	ScaledShares  decimal.Decimal
	IndexSnapshot decimal.Decimal
	// Unclaimed parks credit recognised by settlement until the depositor
	// claims it. Deposits and withdrawals settle the record without paying,
	// so recognised credit must survive the snapshot advancing.
	Unclaimed decimal.Decimal
}

// Clone returns a copy of the account record.
func (u *UserAccount) Clone() *UserAccount {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// StateStore is the persistence boundary the engine operates against. The
// store must provide read-your-writes consistency within a single
// operation; the engine loads records, applies every precondition check and
// only then writes the mutated copies back.
type StateStore interface {
	GetState() (*State, error)
	PutState(*State) error
	GetUserAccount(addr string) (*UserAccount, error)
	PutUserAccount(*UserAccount) error
}

// PaymentExecutor performs the actual reserve-asset transfer when a pool
// depositor claims accrued credit. Pay must complete or fail synchronously;
// the ledger commits its own bookkeeping only after Pay reports success.
type PaymentExecutor interface {
	Pay(addr string, amount decimal.Decimal) error
}

// PaymentExecutorFunc adapts a plain function to the PaymentExecutor
// interface for tests and simple hosts.
type PaymentExecutorFunc func(addr string, amount decimal.Decimal) error

func (f PaymentExecutorFunc) Pay(addr string, amount decimal.Decimal) error {
	return f(addr, amount)
}
