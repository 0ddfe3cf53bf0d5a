package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the platform parameters loaded at startup. Monetary values
// are decimal strings so the file format stays independent of word size.
type Config struct {
	DataDir              string   `toml:"DataDir"`
	FeeBps               uint32   `toml:"FeeBps"`
	MaxFeeBps            uint32   `toml:"MaxFeeBps"`
	MinDonation          string   `toml:"MinDonation"`
	MinProjectTarget     string   `toml:"MinProjectTarget"`
	MaxProjectTarget     string   `toml:"MaxProjectTarget"`
	CreditRate           uint64   `toml:"CreditRate"`
	CreditUnit           string   `toml:"CreditUnit"`
	CollectibleThreshold string   `toml:"CollectibleThreshold"`
	CollectibleSupply    uint64   `toml:"CollectibleSupply"`
	MetadataBaseURI      string   `toml:"MetadataBaseURI"`
	MinFrequencySeconds  int64    `toml:"MinFrequencySeconds"`
	MaxIntentsPerDonor   int      `toml:"MaxIntentsPerDonor"`
	Categories           []string `toml:"Categories"`
	StrictRelease        bool     `toml:"StrictRelease"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DataDir:              "./givechain-data",
		FeeBps:               250,
		MaxFeeBps:            1000,
		MinDonation:          "1000000000000000",
		MinProjectTarget:     "1000000000000000000",
		MaxProjectTarget:     "1000000000000000000000000",
		CreditRate:           10,
		CreditUnit:           "1000000000000000000",
		CollectibleThreshold: "100000000000000000000",
		CollectibleSupply:    100000,
		MetadataBaseURI:      "https://meta.givechain.example/collectible/",
		MinFrequencySeconds:  86400,
		MaxIntentsPerDonor:   16,
		Categories: []string{
			"reforestation",
			"wetlands",
			"coral",
			"wildlife",
			"soil",
		},
		StrictRelease: false,
	}
}

// Load reads the configuration from the given path. A missing file is
// written out with defaults so operators get an editable template.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects parameter combinations the engines cannot operate with.
func (c *Config) Validate() error {
	if c.MaxFeeBps > 10_000 {
		return fmt.Errorf("MaxFeeBps %d exceeds 10000", c.MaxFeeBps)
	}
	if c.FeeBps > c.MaxFeeBps {
		return fmt.Errorf("FeeBps %d exceeds MaxFeeBps %d", c.FeeBps, c.MaxFeeBps)
	}
	for _, field := range []struct {
		name, value string
	}{
		{"MinDonation", c.MinDonation},
		{"MinProjectTarget", c.MinProjectTarget},
		{"MaxProjectTarget", c.MaxProjectTarget},
		{"CreditUnit", c.CreditUnit},
		{"CollectibleThreshold", c.CollectibleThreshold},
	} {
		if _, err := parseAmount(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	minTarget, _ := parseAmount(c.MinProjectTarget)
	maxTarget, _ := parseAmount(c.MaxProjectTarget)
	if minTarget.Cmp(maxTarget) > 0 {
		return fmt.Errorf("MinProjectTarget exceeds MaxProjectTarget")
	}
	unit, _ := parseAmount(c.CreditUnit)
	if unit.Sign() == 0 {
		return fmt.Errorf("CreditUnit must be positive")
	}
	if c.MinFrequencySeconds <= 0 {
		return fmt.Errorf("MinFrequencySeconds must be positive")
	}
	if c.MaxIntentsPerDonor <= 0 {
		return fmt.Errorf("MaxIntentsPerDonor must be positive")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category required")
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("empty category name")
		}
	}
	return nil
}

// MinDonationAmount returns the parsed minimum donation. Validate must have
// succeeded first.
func (c *Config) MinDonationAmount() *big.Int { return mustAmount(c.MinDonation) }

// MinTargetAmount returns the parsed minimum project target.
func (c *Config) MinTargetAmount() *big.Int { return mustAmount(c.MinProjectTarget) }

// MaxTargetAmount returns the parsed maximum project target.
func (c *Config) MaxTargetAmount() *big.Int { return mustAmount(c.MaxProjectTarget) }

// CreditUnitAmount returns the parsed reward credit unit.
func (c *Config) CreditUnitAmount() *big.Int { return mustAmount(c.CreditUnit) }

// CollectibleThresholdAmount returns the parsed collectible threshold.
func (c *Config) CollectibleThresholdAmount() *big.Int {
	return mustAmount(c.CollectibleThreshold)
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func mustAmount(value string) *big.Int {
	amount, err := parseAmount(value)
	if err != nil {
		panic(err)
	}
	return amount
}
