package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates realistic bar data for testing and
// benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bar data is generated.
type GeneratorConfig struct {
	// StartTime is the beginning of the data series.
	StartTime time.Time
	// Interval is the duration between each bar.
	Interval time.Duration
	// Count is the number of bars to generate.
	Count int
	// InitialPrice is the starting price.
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical per-bar volatility).
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish).
	Trend float64
	// VolumeBase is the average volume per bar.
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0).
	VolumeVariance float64
	// SignalLookback is the momentum window used to derive signals.
	SignalLookback int
	// SignalThreshold is the fractional move over the lookback window
	// required to emit a directional signal.
	SignalThreshold float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:        24 * time.Hour,
		Count:           252,
		InitialPrice:    100.0,
		Volatility:      0.02,
		Trend:           0.0,
		VolumeBase:      10000,
		VolumeVariance:  0.3,
		SignalLookback:  5,
		SignalThreshold: 0.01,
	}
}

// Generate creates a bar series based on the configuration. Prices
// follow geometric Brownian motion; signals come from a simple momentum
// rule over the lookback window, so the series exercises entries, exits
// and reversals.
func (g *DataGenerator) Generate(config GeneratorConfig) types.BarSeries {
	bars := make(types.BarSeries, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed shock.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend
		change := drift + config.Volatility*z
		close := open * math.Exp(change)

		high := math.Max(open, close) * (1 + g.rng.Float64()*config.Volatility)
		low := math.Min(open, close) * (1 - g.rng.Float64()*config.Volatility)

		volume := config.VolumeBase * (1 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = 0
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	g.assignSignals(bars, config)

	return bars
}

// assignSignals derives a ternary signal per bar from the price move
// over the lookback window.
func (g *DataGenerator) assignSignals(bars types.BarSeries, config GeneratorConfig) {
	lookback := config.SignalLookback
	if lookback <= 0 {
		lookback = 1
	}

	for i := range bars {
		if i < lookback {
			bars[i].Signal = types.SignalNeutral

			continue
		}

		momentum := bars[i].Close/bars[i-lookback].Close - 1

		switch {
		case momentum > config.SignalThreshold:
			bars[i].Signal = types.SignalLong
		case momentum < -config.SignalThreshold:
			bars[i].Signal = types.SignalShort
		default:
			bars[i].Signal = types.SignalNeutral
		}
	}
}

// WriteCSV writes the bar series to a CSV file readable by the DuckDB
// bar source.
func WriteCSV(path string, bars types.BarSeries) error {
	var sb strings.Builder

	sb.WriteString("time,open,high,low,close,volume,signal\n")

	for i := range bars {
		bar := &bars[i]
		sb.WriteString(fmt.Sprintf("%s,%f,%f,%f,%f,%f,%d\n",
			bar.Time.Format(time.RFC3339), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, int(bar.Signal)))
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}
