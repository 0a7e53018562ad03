package stable

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRebalanceDeferredBurnScenario(t *testing.T) {
	engine, state := twoDepositors(t)

	// reserve=100 @ $2, liability=200 => CR = 1.0. Target 1.25 needs the
	// supply down to 160: a 40-token burn, well under the 100-token cap.
	burned, indexed, err := engine.RebalanceToTarget(d("1.25"))
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireEqual(t, burned, d("40"), "executed burn")
	requireEqual(t, indexed, d("20"), "indexed payout")

	s := state.state
	requireEqual(t, s.Supply.Liability, d("160"), "liability supply")
	requireEqual(t, s.Reserve.Balance, d("100"), "reserve deliberately untouched")
	requireEqual(t, s.Obligation.Total, d("20"), "obligation total")
	requireEqual(t, s.Pool.ObligationIndex, d("0.1"), "obligation index")
	requireEqual(t, s.Pool.ScaleFactor, d("0.8"), "scale factor")

	// Summed depositor credit equals the obligation total.
	sum := decimal.Zero
	for _, addr := range []string{"alice", "bob"} {
		pending, err := engine.PendingCredit(addr)
		if err != nil {
			t.Fatalf("pending credit %s: %v", addr, err)
		}
		requireEqual(t, pending, d("10"), "per-user credit")
		sum = sum.Add(pending)
	}
	requireEqual(t, sum, s.Obligation.Total, "credit sums to obligation")

	// The indexed payout counts against the net reserve, so at parity the
	// ratio is unchanged until claims or recapitalisation move reserve.
	cr, err := engine.CollateralRatio()
	if err != nil {
		t.Fatalf("collateral ratio: %v", err)
	}
	requireEqual(t, cr, d("1"), "collateral ratio")
}

func TestRebalanceToFourThirdsTarget(t *testing.T) {
	engine, state := twoDepositors(t)

	// reserve=100 @ $2, liability=200, pool=200. Target 4/3 solves to a
	// 150-token supply: burn 50, payout 25, scale 0.75, obligation 25.
	// The target is a non-terminating decimal, so assertions allow
	// division drift.
	tol := d("0.000000001")
	target := d("4").Div(d("3"))
	burned, indexed, err := engine.RebalanceToTarget(target)
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireWithin(t, burned, d("50"), tol, "executed burn")
	requireWithin(t, indexed, d("25"), tol, "indexed payout")

	s := state.state
	requireWithin(t, s.Supply.Liability, d("150"), tol, "liability supply")
	requireWithin(t, s.Obligation.Total, d("25"), tol, "obligation total")
	requireWithin(t, s.Pool.ScaleFactor, d("0.75"), tol, "scale factor")
	requireWithin(t, s.Pool.ObligationIndex, d("0.125"), tol, "obligation index")

	pending, err := engine.PendingCredit("alice")
	if err != nil {
		t.Fatalf("pending credit: %v", err)
	}
	requireWithin(t, pending, d("12.5"), tol, "per-user credit")

	balance, err := engine.PoolBalance("alice")
	if err != nil {
		t.Fatalf("pool balance: %v", err)
	}
	requireWithin(t, balance, d("75"), tol, "post-burn pool balance")
}

func TestRebalanceNoOpWhenAboveTarget(t *testing.T) {
	engine, state := twoDepositors(t)
	before := state.state.Clone()

	// CR is 1.0; a target at or below leaves nothing to burn.
	burned, indexed, err := engine.RebalanceToTarget(d("1.0"))
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireEqual(t, burned, decimal.Zero, "burn")
	requireEqual(t, indexed, decimal.Zero, "payout")
	requireEqual(t, state.state.Supply.Liability, before.Supply.Liability, "supply untouched")
	requireEqual(t, state.state.Pool.ScaleFactor, before.Pool.ScaleFactor, "scale untouched")
	requireEqual(t, state.state.Pool.ObligationIndex, before.Pool.ObligationIndex, "index untouched")
}

func TestRebalanceHonoursPoolCap(t *testing.T) {
	engine, state := newTestEngine(t)
	bootstrapPrice(t, engine, "2")
	if _, err := engine.Mint("alice", d("100")); err != nil {
		t.Fatalf("mint: %v", err)
	}
	// Only half the 200-token supply sits in the pool.
	if err := engine.Deposit("alice", d("100")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Target 2.0 wants 100 tokens burned; the pacing cap allows only
	// half the 100-token pool.
	burned, indexed, err := engine.RebalanceToTarget(d("2"))
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireEqual(t, burned, d("50"), "burn capped at pool fraction")
	requireEqual(t, indexed, d("25"), "payout scales with capped burn")
	requireEqual(t, state.state.Supply.Liability, d("150"), "supply")
}

func TestPoolBurnPrimitiveRecapsRequests(t *testing.T) {
	// The ledger re-derives the cap itself even when the caller did not:
	// a request for 80 of a 100-token pool executes at 50 with the payout
	// scaled proportionally.
	s := &State{}
	s.Pool.ScaleFactor = d("1")
	s.Pool.ScaledTotal = d("100")
	params := Params{}.Normalise()

	burned, payout := poolBurnAndIndex(s, params, d("80"), d("40"))
	requireEqual(t, burned, d("50"), "burn recapped")
	requireEqual(t, payout, d("25"), "payout rescaled")
	requireEqual(t, s.Pool.ScaleFactor, d("0.5"), "scale factor")
	requireEqual(t, s.Pool.ObligationIndex, d("0.25"), "index")
	requireEqual(t, s.Obligation.Total, d("25"), "obligation")
}

func TestPoolBurnPrimitiveEmptyPool(t *testing.T) {
	s := &State{}
	s.Pool.ScaleFactor = d("1")
	params := Params{}.Normalise()

	burned, payout := poolBurnAndIndex(s, params, d("10"), d("5"))
	requireEqual(t, burned, decimal.Zero, "burn")
	requireEqual(t, payout, decimal.Zero, "payout")
}

func TestRebalanceNoOpBeforeOracle(t *testing.T) {
	engine, _ := newTestEngine(t)
	burned, indexed, err := engine.RebalanceToTarget(d("1.306"))
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireEqual(t, burned, decimal.Zero, "burn")
	requireEqual(t, indexed, decimal.Zero, "payout")
}

func TestRebalanceNoOpWithoutLiability(t *testing.T) {
	engine, _ := newTestEngine(t)
	bootstrapPrice(t, engine, "2")
	burned, indexed, err := engine.RebalanceToTarget(d("1.306"))
	if err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	requireEqual(t, burned, decimal.Zero, "burn")
	requireEqual(t, indexed, decimal.Zero, "payout")
}

func TestRebalanceRejectsInvalidTarget(t *testing.T) {
	engine, _ := twoDepositors(t)
	if _, _, err := engine.RebalanceToTarget(decimal.Zero); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if _, _, err := engine.RebalanceToTarget(d("-1")); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestRebalanceFailsFastWithoutState(t *testing.T) {
	engine := NewEngine(Params{})
	// A missing ledger is a configuration error, never an empty-pool no-op.
	if _, _, err := engine.RebalanceToTarget(d("1.306")); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
}
