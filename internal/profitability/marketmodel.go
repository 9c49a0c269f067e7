package profitability

import "math/rand"

// MarketModel supplies the stochastic inputs of an analysis: short-horizon
// price noise and a volatility estimate. Production uses a seeded
// pseudo-random model; tests pin both values with Fixed.
type MarketModel interface {
	// Noise returns a zero-centered disturbance applied to expected profit.
	Noise() float64
	// Volatility returns the current volatility estimate in [0,1].
	Volatility() float64
}

type randomModel struct {
	rng        *rand.Rand
	volatility float64
}

// NewModel creates a seeded market model with the given base volatility.
func NewModel(seed int64, volatility float64) MarketModel {
	if volatility <= 0 {
		volatility = 0.05
	}
	return &randomModel{
		rng:        rand.New(rand.NewSource(seed)),
		volatility: volatility,
	}
}

func (m *randomModel) Noise() float64 {
	// Uniform in [-volatility, +volatility], scaled down so noise
	// perturbs but never dominates the scenario spread.
	return (m.rng.Float64()*2 - 1) * m.volatility * 0.5
}

func (m *randomModel) Volatility() float64 {
	return m.volatility
}

// Fixed is a deterministic market model for tests.
type Fixed struct {
	NoiseValue      float64
	VolatilityValue float64
}

func (f Fixed) Noise() float64      { return f.NoiseValue }
func (f Fixed) Volatility() float64 { return f.VolatilityValue }
