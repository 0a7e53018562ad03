package stable

import (
	"fmt"

	"github.com/shopspring/decimal"

	nativecommon "stablecore/native/common"
)

// The stability pool tracks depositor stakes in scaled units so a pro-rata
// burn touches only the global scale factor, never individual records.
// Credit owed to depositors accrues through the obligation index: each
// record snapshots the index at settlement and the difference times the
// scaled stake is the accrued, unclaimed reserve-asset credit.

// PoolTotal returns the pooled liability in actual token units.
func (e *Engine) PoolTotal() (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	return poolTotal(s), nil
}

// QuoteBurnCap returns the maximum liability a single controller call may
// burn from the pool under the pacing limit.
func (e *Engine) QuoteBurnCap() (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	return e.params.BurnFractionCap.Mul(poolTotal(s)), nil
}

// PendingCredit reports the depositor's accrued-but-unclaimed reserve-asset
// credit without mutating the settlement snapshot.
func (e *Engine) PendingCredit(addr string) (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return decimal.Zero, err
	}
	fresh := clampZero(user.ScaledShares.Mul(s.Pool.ObligationIndex.Sub(user.IndexSnapshot)))
	return user.Unclaimed.Add(fresh), nil
}

// PoolBalance returns the depositor's in-pool liability balance in actual
// token units.
func (e *Engine) PoolBalance(addr string) (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return decimal.Zero, err
	}
	return user.ScaledShares.Mul(s.Pool.ScaleFactor), nil
}

// Deposit moves liability tokens from the caller's free balance into the
// pool. The record is settled first so the index snapshot stays fair.
func (e *Engine) Deposit(addr string, amount decimal.Decimal) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	s, err := e.loadState()
	if err != nil {
		return err
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return err
	}
	if amount.GreaterThan(user.FreeBalance) {
		return ErrInvalidAmount
	}

	settle(user, s)
	scaled := amount.Div(s.Pool.ScaleFactor)
	user.FreeBalance = user.FreeBalance.Sub(amount)
	user.ScaledShares = user.ScaledShares.Add(scaled)
	s.Pool.ScaledTotal = s.Pool.ScaledTotal.Add(scaled)

	if err := e.state.PutUserAccount(user); err != nil {
		return err
	}
	return e.state.PutState(s)
}

// Withdraw moves liability tokens from the pool back into the caller's free
// balance. The amount is checked against the actual balance (scaled shares
// times scale factor) within tolerance.
func (e *Engine) Withdraw(addr string, amount decimal.Decimal) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	s, err := e.loadState()
	if err != nil {
		return err
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return err
	}
	available := user.ScaledShares.Mul(s.Pool.ScaleFactor)
	if amount.GreaterThan(available.Add(eps)) {
		return ErrInsufficientBalance
	}

	settle(user, s)
	scaled := amount.Div(s.Pool.ScaleFactor)
	if scaled.GreaterThan(user.ScaledShares) {
		scaled = user.ScaledShares
	}
	user.ScaledShares = clampZero(user.ScaledShares.Sub(scaled))
	s.Pool.ScaledTotal = clampZero(s.Pool.ScaledTotal.Sub(scaled))
	user.FreeBalance = user.FreeBalance.Add(amount)

	if err := e.state.PutUserAccount(user); err != nil {
		return err
	}
	return e.state.PutState(s)
}

// Claim settles the caller's record and pays out the accrued credit through
// the supplied executor. The executor performs the actual asset transfer
// and must succeed before any ledger mutation commits; on failure the claim
// returns ErrSettlementFailed with state exactly as before the call.
// Besides direct redemption this is the only operation that reduces the
// reserve.
func (e *Engine) Claim(addr string, executor PaymentExecutor) (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return decimal.Zero, err
	}
	if executor == nil {
		return decimal.Zero, ErrNilExecutor
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return decimal.Zero, err
	}

	accrued := settle(user, s)
	if accrued.LessThanOrEqual(eps) {
		return decimal.Zero, nil
	}
	if accrued.GreaterThan(s.Reserve.Balance.Add(eps)) {
		return decimal.Zero, ErrInsufficientNetReserve
	}

	if err := executor.Pay(addr, accrued); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	user.Unclaimed = decimal.Zero
	s.Reserve.Balance = clampZero(s.Reserve.Balance.Sub(accrued))
	// Clamp absorbs division drift so the obligation never goes negative.
	s.Obligation.Total = clampZero(s.Obligation.Total.Sub(accrued))
	recomputeEquityNAV(s)

	if err := e.state.PutUserAccount(user); err != nil {
		return decimal.Zero, err
	}
	if err := e.state.PutState(s); err != nil {
		return decimal.Zero, err
	}
	return accrued, nil
}

// IndexHarvest folds externally supplied yield into the pool: a bounty
// fraction is carved out for the caller and the remainder is indexed as
// additional obligation to depositors. Paying the bounty itself is the
// caller's responsibility. Harvesting into an empty pool or with a
// non-positive amount is a defined no-op returning zero.
func (e *Engine) IndexHarvest(yield decimal.Decimal) (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return decimal.Zero, err
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	if yield.LessThanOrEqual(eps) || s.Pool.ScaledTotal.LessThanOrEqual(eps) {
		return decimal.Zero, nil
	}

	bounty := yield.Mul(decimal.NewFromUint64(e.params.HarvestBountyBps)).Div(bpsDenom)
	remainder := yield.Sub(bounty)
	s.Pool.ObligationIndex = s.Pool.ObligationIndex.Add(remainder.Div(s.Pool.ScaledTotal))
	s.Obligation.Total = s.Obligation.Total.Add(remainder)

	if err := e.state.PutState(s); err != nil {
		return decimal.Zero, err
	}
	return bounty, nil
}

// settle recognises the record's newly accrued credit, parks it on the
// record and advances the snapshot to the current index. Nothing is paid
// here; payment happens in Claim. Returns the total recognised credit.
func settle(user *UserAccount, s *State) decimal.Decimal {
	fresh := clampZero(user.ScaledShares.Mul(s.Pool.ObligationIndex.Sub(user.IndexSnapshot)))
	user.IndexSnapshot = s.Pool.ObligationIndex
	user.Unclaimed = user.Unclaimed.Add(fresh)
	return user.Unclaimed
}

// poolBurnAndIndex is the controller-facing burn primitive. It re-derives
// the pooled total at call time and enforces the pacing cap itself even
// though the controller already capped the request: the ledger never trusts
// the caller's cap enforcement. When the burn is reduced the payout scales
// proportionally so burn and payout stay consistent. The executed payout is
// indexed to depositors and added to the obligation total, and the scale
// factor shrinks by the executed burn's fraction of the pre-burn pool,
// realising the haircut across every depositor in O(1).
func poolBurnAndIndex(s *State, p Params, requestedBurn, requestedPayout decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	totalPre := poolTotal(s)
	if totalPre.LessThanOrEqual(eps) || requestedBurn.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero
	}
	allowedBurn := decimal.Min(requestedBurn, p.BurnFractionCap.Mul(totalPre))
	if allowedBurn.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero
	}
	if s.Pool.ScaledTotal.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero
	}

	payoutPerUnit := requestedPayout.Div(requestedBurn)
	allowedPayout := payoutPerUnit.Mul(allowedBurn)

	s.Pool.ObligationIndex = s.Pool.ObligationIndex.Add(allowedPayout.Div(s.Pool.ScaledTotal))
	s.Obligation.Total = s.Obligation.Total.Add(allowedPayout)

	frac := allowedBurn.Div(totalPre)
	s.Pool.ScaleFactor = s.Pool.ScaleFactor.Mul(clampZero(one.Sub(frac)))

	return allowedBurn, allowedPayout
}

func poolTotal(s *State) decimal.Decimal {
	return s.Pool.ScaledTotal.Mul(s.Pool.ScaleFactor)
}
