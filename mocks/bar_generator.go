package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// BarGenerator produces reproducible OHLCV bars for tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a generator. A fixed seed gives the same bars every run.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures a random walk.
type GeneratorConfig struct {
	StartTime time.Time
	Interval  time.Duration
	Count     int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns
	Volatility float64
	// Drift is added to every bar's return
	Drift          float64
	VolumeBase     float64
	VolumeVariance float64
}

func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       15 * time.Minute,
		Count:          500,
		InitialPrice:   100.0,
		Volatility:     0.004,
		Drift:          0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate follows geometric Brownian motion.
func (g *BarGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	now := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z + config.Drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   now,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
		}

		price = closePrice
		now = now.Add(config.Interval)
	}

	return bars
}

// BarsFromCloses builds bars whose open equals the close and whose high and low
// sit spread above and below it.
func BarsFromCloses(start time.Time, interval time.Duration, closes []float64, spread float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * interval),
			Open:   c,
			High:   c + spread,
			Low:    c - spread,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

// GoldenCrossCloses is a 200 bar close series: flat at 100 up to bar 149,
// one step to 101 at bar 150, rising by 1 a bar to 130 at bar 179, then a
// drop to 90 held to the end.
func GoldenCrossCloses() []float64 {
	closes := make([]float64, 200)
	for i := range closes {
		switch {
		case i < 150:
			closes[i] = 100
		case i < 180:
			closes[i] = 101 + float64(i-150)
		default:
			closes[i] = 90
		}
	}

	return closes
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
