package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drift-labs/protocol-v2-sub007/math"
)

func TestParse(t *testing.T) {
	config, err := Parse([]byte(`
perpMarketIndexes: [0, 1, 2]
updateFrequency: 250ms
topOfBookQuoteAmounts: ["100", "250.5"]
logLevel: debug
`))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 1, 2}, config.PerpMarketIndexes)
	assert.Equal(t, DefaultConfig.SpotMarketIndexes, config.SpotMarketIndexes)
	assert.Equal(t, 250*time.Millisecond, config.UpdateFrequency)
	assert.Equal(t, 10, config.NumVammOrders)
	assert.Equal(t, "debug", config.LogLevel)

	amounts, err := config.GetTopOfBookQuoteAmounts()
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.Equal(t, int64(100_000_000), amounts[0].Int64())
	assert.Equal(t, int64(250_500_000), amounts[1].Int64())

	_, err = Parse([]byte("perpMarketIndexes: {"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(config *DlobConfig)
	}{
		{"update frequency", func(config *DlobConfig) { config.UpdateFrequency = 0 }},
		{"vamm orders", func(config *DlobConfig) { config.NumVammOrders = -1 }},
		{"expiry buffer", func(config *DlobConfig) { config.LimitOrderExpiryBuffer = -1 }},
		{"quote amount", func(config *DlobConfig) { config.TopOfBookQuoteAmounts = []string{"abc"} }},
		{"negative quote amount", func(config *DlobConfig) { config.TopOfBookQuoteAmounts = []string{"-5"} }},
		{"log level", func(config *DlobConfig) { config.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig
			tt.modify(&config)
			assert.True(t, errors.Is(config.Validate(), ErrInvalidConfig))
		})
	}

	config := DefaultConfig
	assert.NoError(t, config.Validate())
}

func TestInitialize(t *testing.T) {
	defer func() {
		_, _ = Initialize(nil)
	}()

	config, err := Initialize(&DlobConfig{
		SpotMarketIndexes:      []uint16{0, 1},
		LimitOrderExpiryBuffer: 30,
	})
	require.NoError(t, err)
	assert.Same(t, GetConfig(), config)
	assert.Equal(t, []uint16{0, 1}, config.SpotMarketIndexes)
	assert.Equal(t, DefaultConfig.PerpMarketIndexes, config.PerpMarketIndexes)
	assert.Equal(t, int64(30), math.LimitOrderExpiryBuffer)

	_, err = Initialize(&DlobConfig{LogLevel: "loud"})
	assert.Error(t, err)
	assert.Equal(t, int64(30), GetConfig().LimitOrderExpiryBuffer)

	config, err = Initialize(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig.LimitOrderExpiryBuffer, math.LimitOrderExpiryBuffer)
	assert.Equal(t, DefaultConfig.NumVammOrders, config.NumVammOrders)
}

func TestLoadFile(t *testing.T) {
	defer func() {
		_, _ = Initialize(nil)
	}()

	path := filepath.Join(t.TempDir(), "dlob.yaml")
	require.NoError(t, os.WriteFile(path, []byte("numVammOrders: 4\n"), 0o600))

	config, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, config.NumVammOrders)
	assert.Equal(t, 4, GetConfig().NumVammOrders)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	config := DefaultConfig
	logger, err := config.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	config.LogLevel = "loud"
	_, err = config.NewLogger()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
