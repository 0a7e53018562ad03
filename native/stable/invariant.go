package stable

import "github.com/shopspring/decimal"

// CheckValueConservation reports whether the reserve value matches the
// outstanding token value within tolerance. Pool obligations do not appear
// here: they are a claim on future reserve, not a change to the total
// backed value.
func (e *Engine) CheckValueConservation(tolerance decimal.Decimal) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return false, err
	}
	lhs := s.Reserve.Balance.Mul(s.Reserve.Price)
	rhs := s.Supply.Liability.Mul(s.Supply.LiabilityNAV).
		Add(s.Supply.Equity.Mul(s.Supply.EquityNAV))
	return lhs.Sub(rhs).Abs().LessThanOrEqual(tolerance), nil
}

// CheckSolvency reports whether the reserve covers the obligations promised
// to pool depositors.
func (e *Engine) CheckSolvency() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return false, err
	}
	return s.Reserve.Balance.Add(eps).GreaterThanOrEqual(s.Obligation.Total), nil
}
