package stable

import (
	"github.com/shopspring/decimal"

	nativecommon "stablecore/native/common"
)

// UpdatePrice validates and applies an oracle sample, then re-derives the
// equity NAV. The very first sample bootstraps the feed and skips the
// staleness and step checks; afterwards a sample is rejected when it is
// older than the staleness bound or moves more than the maximum relative
// step from the previous price. Rejection leaves state untouched.
func (e *Engine) UpdatePrice(newPrice decimal.Decimal, timestamp int64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if newPrice.Sign() <= 0 {
		return ErrInvalidPrice
	}
	s, err := e.loadState()
	if err != nil {
		return err
	}
	if s.Reserve.PriceTimestamp != 0 {
		if timestamp-s.Reserve.PriceTimestamp > e.params.MaxStalenessSeconds {
			return ErrStalePrice
		}
		prev := s.Reserve.Price
		if prev.LessThanOrEqual(eps) {
			prev = eps
		}
		rel := newPrice.Div(prev).Sub(one).Abs()
		if rel.GreaterThan(e.params.MaxRelStep) {
			return ErrExcessiveStep
		}
	}

	s.Reserve.Price = newPrice
	s.Reserve.PriceTimestamp = timestamp
	// Stability coefficient is zero in the current governance
	// configuration: the liability NAV is reasserted, not derived.
	s.Supply.LiabilityNAV = e.params.LiabilityNAV
	recomputeEquityNAV(s)

	return e.state.PutState(s)
}
