package stable

import (
	"github.com/shopspring/decimal"

	nativecommon "stablecore/native/common"
)

// RebalanceToTarget burns liability tokens out of the stability pool until
// the collateral ratio reaches the target, deferring payment: the reserve
// owed for the burn is indexed as an obligation to depositors instead of
// leaving the reserve now. Returns the executed burn and the indexed
// payout, both capped at the requested values.
//
// An unset oracle price, a near-zero liability supply or a near-zero burn
// need are defined no-ops returning (0, 0), not errors. A missing state
// store is a configuration error; the controller never silently behaves as
// if the pool were empty.
func (e *Engine) RebalanceToTarget(targetCR decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, decimal.Zero, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if targetCR.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, ErrInvalidTarget
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if s.Reserve.Price.LessThanOrEqual(eps) || s.Supply.Liability.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero, nil
	}

	// Solve for the liability supply that puts CR at the target with the
	// net reserve held constant: no reserve moves during this call.
	netUSD := netReserve(s).Mul(s.Reserve.Price)
	targetLiability := netUSD.Div(targetCR.Mul(s.Supply.LiabilityNAV))
	need := clampZero(s.Supply.Liability.Sub(targetLiability))
	if need.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero, nil
	}

	cap := e.params.BurnFractionCap.Mul(poolTotal(s))
	requestedBurn := decimal.Min(need, cap, s.Supply.Liability)
	if requestedBurn.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero, nil
	}
	requestedPayout := requestedBurn.Mul(s.Supply.LiabilityNAV).Div(s.Reserve.Price)

	executedBurn, executedPayout := poolBurnAndIndex(s, e.params, requestedBurn, requestedPayout)
	if executedBurn.LessThanOrEqual(eps) {
		return decimal.Zero, decimal.Zero, nil
	}

	s.Supply.Liability = clampZero(s.Supply.Liability.Sub(executedBurn))
	recomputeEquityNAV(s)

	if err := e.state.PutState(s); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return executedBurn, executedPayout, nil
}
