// stablesim wires the stable engine over the in-memory store and replays a
// deterministic protocol scenario: oracle bootstrap, issuance, pool
// deposits, a tier-3 deferred burn and the eventual claims. It exists to
// exercise the full stack end to end and to expose the protocol gauges.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"stablecore/config"
	"stablecore/native/stable"
	"stablecore/observability"
	"stablecore/observability/logging"
	"stablecore/storage"
)

func main() {
	configPath := flag.String("config", "stablesim.toml", "path to the node configuration file")
	metricsAddr := flag.String("metrics-addr", "", "listen address for /metrics; overrides the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Service, cfg.Env)

	params, err := cfg.Params()
	if err != nil {
		logger.Error("invalid protocol parameters", "error", err)
		os.Exit(1)
	}

	engine := stable.NewEngine(params)
	engine.SetState(storage.NewMemory())

	addr := cfg.MetricsAddress
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("serving metrics", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if err := runScenario(engine, logger); err != nil {
		logger.Error("scenario failed", "error", err)
		os.Exit(1)
	}

	if addr != "" {
		logger.Info("scenario complete; metrics remain available")
		select {}
	}
}

func runScenario(engine *stable.Engine, logger *slog.Logger) error {
	metrics := observability.Stable()
	dec := decimal.RequireFromString

	publish := func() error {
		snap, err := engine.Snapshot()
		if err != nil {
			return err
		}
		cr, err := engine.CollateralRatio()
		if err != nil {
			return err
		}
		tier, err := engine.Tier()
		if err != nil {
			return err
		}
		metrics.RecordState(snap, cr, tier)
		logger.Info("protocol state",
			"reserve", snap.Reserve.Balance.String(),
			"liability", snap.Supply.Liability.String(),
			"obligation", snap.Obligation.Total.String(),
			"scale_factor", snap.Pool.ScaleFactor.String(),
			"obligation_index", snap.Pool.ObligationIndex.String(),
			"collateral_ratio", cr.StringFixed(6),
			"tier", tier,
		)
		return nil
	}

	// Oracle bootstrap at $2 per reserve unit.
	if err := engine.UpdatePrice(dec("2"), 1_000); err != nil {
		return err
	}
	metrics.RecordOperation("update_price", nil)

	// Two issuers deposit 50 reserve units each; each receives 100
	// liability tokens at the pinned $1 NAV.
	for _, addr := range []string{"alice", "bob"} {
		issued, err := engine.Mint(addr, dec("50"))
		metrics.RecordOperation("mint", err)
		if err != nil {
			return err
		}
		logger.Info("minted", "addr", addr, "issued", issued.String())
		if err := engine.Deposit(addr, issued); err != nil {
			metrics.RecordOperation("deposit", err)
			return err
		}
		metrics.RecordOperation("deposit", nil)
	}
	if err := publish(); err != nil {
		return err
	}

	// CR sits at 1.0, deep in emergency territory. Burn pool deposits to
	// push it to 1.25 without moving any reserve: payment is deferred.
	burned, indexed, err := engine.RebalanceToTarget(dec("1.25"))
	metrics.RecordOperation("rebalance", err)
	if err != nil {
		return err
	}
	metrics.RecordBurn(burned)
	logger.Info("rebalanced", "burned", burned.String(), "indexed_payout", indexed.String())
	if err := publish(); err != nil {
		return err
	}

	// Depositors pull their indexed reserve credit. The executor stands in
	// for the wallet layer performing the actual transfer.
	executor := stable.PaymentExecutorFunc(func(addr string, amount decimal.Decimal) error {
		logger.Info("paying claim", "addr", addr, "amount", amount.String())
		return nil
	})
	for _, addr := range []string{"alice", "bob"} {
		paid, err := engine.Claim(addr, executor)
		metrics.RecordOperation("claim", err)
		if err != nil {
			return err
		}
		metrics.RecordClaim(paid)
	}
	if err := publish(); err != nil {
		return err
	}

	conserved, err := engine.CheckValueConservation(dec("0.000001"))
	if err != nil {
		return err
	}
	solvent, err := engine.CheckSolvency()
	if err != nil {
		return err
	}
	logger.Info("audit", "value_conservation", conserved, "solvency", solvent)
	return nil
}
