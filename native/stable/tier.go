package stable

import "github.com/shopspring/decimal"

// Tier labels for the collateral ratio response modes.
const (
	TierStability    = 1 // no action
	TierUserDriven   = 2 // user-driven rebalance
	TierProtocol     = 3 // protocol-driven deferred burn
	TierEmergency    = 4 // emergency recapitalisation
	TierEmergencyMax = 5 // emergency recapitalisation, most severe
)

// CollateralRatio returns net reserve value divided by outstanding
// liability value. With no liability outstanding the ratio degenerates to a
// very large value via the epsilon denominator, which classifies as tier 1.
func (e *Engine) CollateralRatio() (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	return collateralRatio(s), nil
}

// Tier evaluates the current response tier from the collateral ratio and
// the configured thresholds. Each threshold is inclusive of its lower
// bound.
func (e *Engine) Tier() (int, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return 0, err
	}
	return tierFor(collateralRatio(s), e.params), nil
}

func collateralRatio(s *State) decimal.Decimal {
	denom := s.Supply.Liability.Mul(s.Supply.LiabilityNAV)
	if denom.LessThanOrEqual(eps) {
		denom = eps
	}
	return netReserve(s).Mul(s.Reserve.Price).Div(denom)
}

func tierFor(cr decimal.Decimal, p Params) int {
	switch {
	case cr.GreaterThanOrEqual(p.TierOneRatio):
		return TierStability
	case cr.GreaterThanOrEqual(p.TierTwoRatio):
		return TierUserDriven
	case cr.GreaterThanOrEqual(p.TierThreeRatio):
		return TierProtocol
	case cr.GreaterThanOrEqual(p.TierFourRatio):
		return TierEmergency
	default:
		return TierEmergencyMax
	}
}
