package stable

import "errors"

var (
	// ErrNilState indicates the engine was invoked without a state store
	// wired. Mutating operations and the rebalance controller fail fast on
	// this instead of behaving as if the pool were empty.
	ErrNilState = errors.New("stable engine: state not configured")

	// ErrInvalidAmount rejects non-positive amounts and amounts exceeding
	// the caller's free balance or the outstanding supply.
	ErrInvalidAmount = errors.New("stable engine: amount must be positive and within available balance")

	// ErrInsufficientBalance rejects withdrawals and redemptions exceeding
	// the caller's actual holdings beyond tolerance.
	ErrInsufficientBalance = errors.New("stable engine: insufficient balance")

	// ErrInsufficientNetReserve rejects payouts that would dip into the
	// reserve promised to pool depositors.
	ErrInsufficientNetReserve = errors.New("stable engine: payout exceeds reserve net of pool obligations")

	// ErrStalePrice rejects oracle samples older than the staleness bound
	// relative to the previous accepted sample.
	ErrStalePrice = errors.New("stable oracle: sample exceeds staleness bound")

	// ErrExcessiveStep rejects oracle samples moving more than the maximum
	// relative step from the previous accepted price.
	ErrExcessiveStep = errors.New("stable oracle: price step exceeds maximum")

	// ErrInvalidPrice rejects non-positive oracle prices.
	ErrInvalidPrice = errors.New("stable oracle: price must be positive")

	// ErrPriceUnset guards conversions before the first oracle sample has
	// been accepted.
	ErrPriceUnset = errors.New("stable oracle: price not initialised")

	// ErrInvalidTarget rejects non-positive rebalance targets.
	ErrInvalidTarget = errors.New("stable rebalance: target ratio must be positive")

	// ErrNilExecutor indicates a claim was attempted without a payment
	// executor wired.
	ErrNilExecutor = errors.New("stable pool: payment executor not configured")

	// ErrSettlementFailed wraps a payment executor failure during claim.
	// Ledger state is untouched when this is returned.
	ErrSettlementFailed = errors.New("stable pool: payment executor failed")
)
