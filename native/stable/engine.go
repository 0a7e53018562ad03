package stable

import (
	"github.com/shopspring/decimal"

	nativecommon "stablecore/native/common"
)

const moduleName = "stable"

var (
	one      = decimal.NewFromInt(1)
	bpsDenom = decimal.NewFromInt(10_000)
	// eps absorbs accumulated division drift; amounts at or below it are
	// treated as zero.
	eps = decimal.New(1, -12)
)

// Engine owns every protocol state transition. All state lives behind the
// wired StateStore and each public operation executes as a single atomic
// transaction against it: preconditions are checked before any mutation and
// mutated copies are written back only once every check has passed.
//
// The engine assumes one operation at a time mutates the state. Hosts
// running concurrent callers must serialise calls behind a single
// mutual-exclusion boundary; nearly every operation touches reserve, supply
// and obligation jointly, so finer-grained locking is unsafe.
type Engine struct {
	state  StateStore
	params Params
	pauses nativecommon.PauseView
}

// NewEngine constructs an engine with the supplied governance parameters.
// Zero-valued fields fall back to launch defaults.
func NewEngine(params Params) *Engine {
	return &Engine{params: params.Normalise()}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state StateStore) { e.state = state }

// SetPauses wires the module pause view consulted before every mutation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Params returns the normalised governance parameters in effect.
func (e *Engine) Params() Params { return e.params }

// Snapshot returns a copy of the full protocol state for read-only use.
func (e *Engine) Snapshot() (*State, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Mint deposits reserve asset and issues liability tokens to the caller at
// the pinned liability NAV. Minting is never tier-gated: it is permitted
// even when the system is undercollateralised, matching governance intent
// as currently understood.
func (e *Engine) Mint(addr string, deposit decimal.Decimal) (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return decimal.Zero, err
	}
	if deposit.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	if s.Reserve.Price.LessThanOrEqual(eps) {
		return decimal.Zero, ErrPriceUnset
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return decimal.Zero, err
	}

	issued := deposit.Mul(s.Reserve.Price).Div(s.Supply.LiabilityNAV)
	s.Reserve.Balance = s.Reserve.Balance.Add(deposit)
	s.Supply.Liability = s.Supply.Liability.Add(issued)
	user.FreeBalance = user.FreeBalance.Add(issued)
	recomputeEquityNAV(s)

	if err := e.state.PutUserAccount(user); err != nil {
		return decimal.Zero, err
	}
	if err := e.state.PutState(s); err != nil {
		return decimal.Zero, err
	}
	return issued, nil
}

// Redeem burns liability tokens held by the caller and pays out reserve
// asset at the pinned NAV. The payout must fit within the reserve net of
// pool obligations; direct redemption never dips into reserve promised to
// pool depositors.
func (e *Engine) Redeem(addr string, burn decimal.Decimal) (decimal.Decimal, error) {
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
	if burn.Sign() <= 0 || burn.GreaterThan(s.Supply.Liability) {
		return decimal.Zero, ErrInvalidAmount
	}
	if s.Reserve.Price.LessThanOrEqual(eps) {
		return decimal.Zero, ErrPriceUnset
	}
	user, err := e.ensureUser(addr)
	if err != nil {
		return decimal.Zero, err
	}
	if burn.GreaterThan(user.FreeBalance.Add(eps)) {
		return decimal.Zero, ErrInsufficientBalance
	}

	payout := burn.Mul(s.Supply.LiabilityNAV).Div(s.Reserve.Price)
	if payout.GreaterThan(netReserve(s)) {
		return decimal.Zero, ErrInsufficientNetReserve
	}

	user.FreeBalance = clampZero(user.FreeBalance.Sub(burn))
	s.Reserve.Balance = s.Reserve.Balance.Sub(payout)
	s.Supply.Liability = s.Supply.Liability.Sub(burn)
	recomputeEquityNAV(s)

	if err := e.state.PutUserAccount(user); err != nil {
		return decimal.Zero, err
	}
	if err := e.state.PutState(s); err != nil {
		return decimal.Zero, err
	}
	return payout, nil
}

// Recapitalize adds externally raised reserve asset during emergency
// recapitalisation. The raise itself (governance token sale, backstop fund)
// happens outside the engine; only the resulting reserve credit lands here.
func (e *Engine) Recapitalize(amount decimal.Decimal) error {
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
	s.Reserve.Balance = s.Reserve.Balance.Add(amount)
	recomputeEquityNAV(s)
	return e.state.PutState(s)
}

// ReserveUSD returns the gross reserve value at the last accepted price.
func (e *Engine) ReserveUSD() (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	return s.Reserve.Balance.Mul(s.Reserve.Price), nil
}

// NetReserve returns the reserve balance net of outstanding pool
// obligations, in reserve-asset units.
func (e *Engine) NetReserve() (decimal.Decimal, error) {
	if e == nil || e.state == nil {
		return decimal.Zero, ErrNilState
	}
	s, err := e.loadState()
	if err != nil {
		return decimal.Zero, err
	}
	return netReserve(s), nil
}

// loadState fetches the singleton state and defaults uninitialised fields
// the way a freshly bootstrapped deployment expects them.
func (e *Engine) loadState() (*State, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	s, err := e.state.GetState()
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &State{}
	}
	if s.Pool.ScaleFactor.Sign() <= 0 {
		s.Pool.ScaleFactor = one
	}
	if s.Supply.LiabilityNAV.Sign() <= 0 {
		s.Supply.LiabilityNAV = e.params.LiabilityNAV
	}
	return s, nil
}

func (e *Engine) ensureUser(addr string) (*UserAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	user, err := e.state.GetUserAccount(addr)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &UserAccount{Address: addr}
	}
	return user, nil
}

// netReserve is the reserve balance net of indexed-but-unpaid pool
// obligations, floored at zero.
func netReserve(s *State) decimal.Decimal {
	return clampZero(s.Reserve.Balance.Sub(s.Obligation.Total))
}

// recomputeEquityNAV re-derives the equity NAV from the conservation
// invariant. Pre-issuance (no equity outstanding) the NAV is undefined and
// left untouched so bootstrap never divides by zero.
func recomputeEquityNAV(s *State) {
	if s.Supply.Equity.LessThanOrEqual(eps) {
		return
	}
	residual := s.Reserve.Balance.Mul(s.Reserve.Price).
		Sub(s.Supply.Liability.Mul(s.Supply.LiabilityNAV))
	s.Supply.EquityNAV = clampZero(residual.Div(s.Supply.Equity))
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}
