package mocks

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesValidSeries(t *testing.T) {
	generator := NewDataGenerator(42)

	bars := generator.Generate(DefaultConfig())

	require.Len(t, bars, 252)
	require.NoError(t, bars.Validate())
}

func TestGenerateIsReproducible(t *testing.T) {
	first := NewDataGenerator(7).Generate(DefaultConfig())
	second := NewDataGenerator(7).Generate(DefaultConfig())

	assert.Equal(t, first, second)
}

func TestGenerateEmitsDirectionalSignals(t *testing.T) {
	config := DefaultConfig()
	config.Count = 1000

	bars := NewDataGenerator(1).Generate(config)

	counts := map[types.Signal]int{}
	for i := range bars {
		counts[bars[i].Signal]++
	}

	assert.Greater(t, counts[types.SignalLong], 0)
	assert.Greater(t, counts[types.SignalShort], 0)
	assert.Greater(t, counts[types.SignalNeutral], 0)
}

func TestTrendBiasesSignals(t *testing.T) {
	config := DefaultConfig()
	config.Count = 1000
	config.Trend = 0.005

	bars := NewDataGenerator(1).Generate(config)

	longs, shorts := 0, 0
	for i := range bars {
		switch bars[i].Signal {
		case types.SignalLong:
			longs++
		case types.SignalShort:
			shorts++
		}
	}

	assert.Greater(t, longs, shorts)
}
