package config

import (
	"math/big"
	"os"
	"time"

	"github.com/go-errors/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/drift-labs/protocol-v2-sub007/constants"
	"github.com/drift-labs/protocol-v2-sub007/math"
)

var ErrInvalidConfig = errors.Errorf("invalid config")

type DlobConfig struct {
	PerpMarketIndexes []uint16      `yaml:"perpMarketIndexes"`
	SpotMarketIndexes []uint16      `yaml:"spotMarketIndexes"`
	UpdateFrequency   time.Duration `yaml:"updateFrequency"`
	// vAMM levels per side in L2 snapshots
	NumVammOrders int `yaml:"numVammOrders"`
	// in quote units, e.g. "500" or "1000.5"
	TopOfBookQuoteAmounts []string `yaml:"topOfBookQuoteAmounts"`
	// seconds a limit order may live past MaxTs before it counts as expired
	LimitOrderExpiryBuffer int64  `yaml:"limitOrderExpiryBuffer"`
	LogLevel               string `yaml:"logLevel"`
}

var DefaultConfig = DlobConfig{
	PerpMarketIndexes:      []uint16{0},
	SpotMarketIndexes:      []uint16{0},
	UpdateFrequency:        time.Second,
	NumVammOrders:          10,
	TopOfBookQuoteAmounts:  []string{"500", "1000", "2000", "5000"},
	LimitOrderExpiryBuffer: 15,
	LogLevel:               "info",
}

var CurrentConfig = DefaultConfig

func GetConfig() *DlobConfig {
	return &CurrentConfig
}

// Initialize resets CurrentConfig to the defaults, applies the non zero
// fields of overrideConfig and pushes process wide settings into the math
// package.
func Initialize(overrideConfig *DlobConfig) (*DlobConfig, error) {
	config := DefaultConfig
	if overrideConfig != nil {
		if len(overrideConfig.PerpMarketIndexes) > 0 {
			config.PerpMarketIndexes = overrideConfig.PerpMarketIndexes
		}
		if len(overrideConfig.SpotMarketIndexes) > 0 {
			config.SpotMarketIndexes = overrideConfig.SpotMarketIndexes
		}
		if overrideConfig.UpdateFrequency > 0 {
			config.UpdateFrequency = overrideConfig.UpdateFrequency
		}
		if overrideConfig.NumVammOrders > 0 {
			config.NumVammOrders = overrideConfig.NumVammOrders
		}
		if len(overrideConfig.TopOfBookQuoteAmounts) > 0 {
			config.TopOfBookQuoteAmounts = overrideConfig.TopOfBookQuoteAmounts
		}
		if overrideConfig.LimitOrderExpiryBuffer > 0 {
			config.LimitOrderExpiryBuffer = overrideConfig.LimitOrderExpiryBuffer
		}
		if overrideConfig.LogLevel != "" {
			config.LogLevel = overrideConfig.LogLevel
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	CurrentConfig = config
	math.LimitOrderExpiryBuffer = CurrentConfig.LimitOrderExpiryBuffer
	return &CurrentConfig, nil
}

// Parse decodes YAML over the defaults without touching CurrentConfig.
func Parse(data []byte) (*DlobConfig, error) {
	config := DefaultConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.WrapPrefix(err, "parse config", 0)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func LoadFile(path string) (*DlobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapPrefix(err, "read config "+path, 0)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Initialize(config)
}

func (p *DlobConfig) Validate() error {
	if p.UpdateFrequency <= 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "updateFrequency must be positive", 0)
	}
	if p.NumVammOrders < 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "numVammOrders must not be negative", 0)
	}
	if p.LimitOrderExpiryBuffer < 0 {
		return errors.WrapPrefix(ErrInvalidConfig, "limitOrderExpiryBuffer must not be negative", 0)
	}
	if _, err := p.GetTopOfBookQuoteAmounts(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(p.LogLevel); err != nil {
		return errors.WrapPrefix(ErrInvalidConfig, "logLevel "+p.LogLevel, 0)
	}
	return nil
}

// GetTopOfBookQuoteAmounts returns the amounts in QUOTE_PRECISION.
func (p *DlobConfig) GetTopOfBookQuoteAmounts() ([]*big.Int, error) {
	amounts := make([]*big.Int, 0, len(p.TopOfBookQuoteAmounts))
	for _, amount := range p.TopOfBookQuoteAmounts {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.WrapPrefix(ErrInvalidConfig, "topOfBookQuoteAmounts "+amount, 0)
		}
		if !value.IsPositive() {
			return nil, errors.WrapPrefix(ErrInvalidConfig, "topOfBookQuoteAmounts must be positive", 0)
		}
		amounts = append(amounts, value.Shift(constants.QUOTE_PRECISION_EXP).BigInt())
	}
	return amounts, nil
}

func (p *DlobConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(p.LogLevel)
	if err != nil {
		return nil, errors.WrapPrefix(ErrInvalidConfig, "logLevel "+p.LogLevel, 0)
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = level
	return zapConfig.Build()
}
