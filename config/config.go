package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"stablecore/native/stable"
)

// Config is the on-disk configuration for a stablecore host. Ratio-valued
// fields are decimal strings so governance values survive the round trip
// without binary floating point drift.
type Config struct {
	Service        string         `toml:"Service"`
	Env            string         `toml:"Env"`
	MetricsAddress string         `toml:"MetricsAddress"`
	Protocol       ProtocolConfig `toml:"protocol"`
}

// ProtocolConfig mirrors stable.Params in file form.
type ProtocolConfig struct {
	MaxStalenessSeconds int64  `toml:"MaxStalenessSeconds"`
	MaxRelStep          string `toml:"MaxRelStep"`
	TierOneRatio        string `toml:"TierOneRatio"`
	TierTwoRatio        string `toml:"TierTwoRatio"`
	TierThreeRatio      string `toml:"TierThreeRatio"`
	TierFourRatio       string `toml:"TierFourRatio"`
	BurnFractionCap     string `toml:"BurnFractionCap"`
	HarvestBountyBps    uint64 `toml:"HarvestBountyBps"`
	LiabilityNAV        string `toml:"LiabilityNAV"`
}

// Load reads the configuration from path, writing a commented default file
// first when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Service) == "" {
		c.Service = "stablecore"
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "local"
	}
}

// Params converts the protocol section into engine parameters, applying
// launch defaults to empty fields and validating the result.
func (c *Config) Params() (stable.Params, error) {
	p := stable.Params{
		MaxStalenessSeconds: c.Protocol.MaxStalenessSeconds,
		HarvestBountyBps:    c.Protocol.HarvestBountyBps,
	}
	fields := []struct {
		raw  string
		name string
		dst  *decimal.Decimal
	}{
		{c.Protocol.MaxRelStep, "MaxRelStep", &p.MaxRelStep},
		{c.Protocol.TierOneRatio, "TierOneRatio", &p.TierOneRatio},
		{c.Protocol.TierTwoRatio, "TierTwoRatio", &p.TierTwoRatio},
		{c.Protocol.TierThreeRatio, "TierThreeRatio", &p.TierThreeRatio},
		{c.Protocol.TierFourRatio, "TierFourRatio", &p.TierFourRatio},
		{c.Protocol.BurnFractionCap, "BurnFractionCap", &p.BurnFractionCap},
		{c.Protocol.LiabilityNAV, "LiabilityNAV", &p.LiabilityNAV},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return stable.Params{}, fmt.Errorf("config: invalid %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = value
	}
	p = p.Normalise()
	if err := p.Validate(); err != nil {
		return stable.Params{}, err
	}
	return p, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Service:        "stablecore",
		Env:            "local",
		MetricsAddress: "",
		Protocol: ProtocolConfig{
			MaxStalenessSeconds: 3600,
			MaxRelStep:          "0.20",
			TierOneRatio:        "1.306",
			TierTwoRatio:        "1.206",
			TierThreeRatio:      "1.144",
			TierFourRatio:       "1.050",
			BurnFractionCap:     "0.50",
			HarvestBountyBps:    100,
			LiabilityNAV:        "1",
		},
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
