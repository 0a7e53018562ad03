package stable

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Governance defaults. The ratio thresholds follow the VaR-derived values
// the protocol launched with; every field is overridable via Params.
var (
	defaultTierOneRatio   = decimal.RequireFromString("1.306")
	defaultTierTwoRatio   = decimal.RequireFromString("1.206")
	defaultTierThreeRatio = decimal.RequireFromString("1.144")
	defaultTierFourRatio  = decimal.RequireFromString("1.050")
	defaultMaxRelStep     = decimal.RequireFromString("0.20")
	defaultBurnCap        = decimal.RequireFromString("0.50")
	defaultLiabilityNAV   = decimal.NewFromInt(1)
)

const (
	defaultMaxStalenessSeconds = 3600
	defaultHarvestBountyBps    = 100
)

// Params carries the governance-settable constants consumed by the engine.
// Thresholds are configuration, not business logic: the engine compares
// against them verbatim.
type Params struct {
	// MaxStalenessSeconds bounds the age of an oracle sample relative to
	// the previously accepted one. A delta equal to the bound is accepted.
	MaxStalenessSeconds int64
	// MaxRelStep bounds |new/old - 1| for an oracle update.
	MaxRelStep decimal.Decimal
	// TierOneRatio..TierFourRatio are the collateral ratio thresholds,
	// strictly descending, each inclusive of its lower bound.
	TierOneRatio   decimal.Decimal
	TierTwoRatio   decimal.Decimal
	TierThreeRatio decimal.Decimal
	TierFourRatio  decimal.Decimal
	// BurnFractionCap is the pool-side pacing limit: the fraction of the
	// pooled liability a single controller call may burn.
	BurnFractionCap decimal.Decimal
	// HarvestBountyBps is the caller bounty carved out of harvested yield.
	HarvestBountyBps uint64
	// LiabilityNAV is the pinned liability token NAV. It is reasserted on
	// every oracle update while the stability coefficient stays zero.
	LiabilityNAV decimal.Decimal
}

// Normalise applies defaults to zero-valued fields and returns the result.
func (p Params) Normalise() Params {
	cfg := p
	if cfg.MaxStalenessSeconds <= 0 {
		cfg.MaxStalenessSeconds = defaultMaxStalenessSeconds
	}
	if cfg.MaxRelStep.Sign() <= 0 {
		cfg.MaxRelStep = defaultMaxRelStep
	}
	if cfg.TierOneRatio.Sign() <= 0 {
		cfg.TierOneRatio = defaultTierOneRatio
	}
	if cfg.TierTwoRatio.Sign() <= 0 {
		cfg.TierTwoRatio = defaultTierTwoRatio
	}
	if cfg.TierThreeRatio.Sign() <= 0 {
		cfg.TierThreeRatio = defaultTierThreeRatio
	}
	if cfg.TierFourRatio.Sign() <= 0 {
		cfg.TierFourRatio = defaultTierFourRatio
	}
	if cfg.BurnFractionCap.Sign() <= 0 {
		cfg.BurnFractionCap = defaultBurnCap
	}
	if cfg.HarvestBountyBps == 0 {
		cfg.HarvestBountyBps = defaultHarvestBountyBps
	}
	if cfg.LiabilityNAV.Sign() <= 0 {
		cfg.LiabilityNAV = defaultLiabilityNAV
	}
	return cfg
}

// Validate reports whether the parameter set is internally consistent.
func (p Params) Validate() error {
	if !p.TierOneRatio.GreaterThan(p.TierTwoRatio) ||
		!p.TierTwoRatio.GreaterThan(p.TierThreeRatio) ||
		!p.TierThreeRatio.GreaterThan(p.TierFourRatio) {
		return fmt.Errorf("stable params: tier thresholds must be strictly descending")
	}
	if p.TierFourRatio.Sign() <= 0 {
		return fmt.Errorf("stable params: tier thresholds must be positive")
	}
	if p.BurnFractionCap.Sign() <= 0 || p.BurnFractionCap.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("stable params: burn fraction cap must be in (0, 1]")
	}
	if p.HarvestBountyBps >= 10_000 {
		return fmt.Errorf("stable params: harvest bounty must be below 10000 bps")
	}
	if p.MaxRelStep.Sign() <= 0 {
		return fmt.Errorf("stable params: max relative step must be positive")
	}
	if p.MaxStalenessSeconds <= 0 {
		return fmt.Errorf("stable params: staleness bound must be positive")
	}
	return nil
}
