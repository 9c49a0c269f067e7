package types

// RiskLevel is a qualitative risk label.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// Rank returns the position of the level in the total order
// low < medium < high < extreme. Unknown labels rank above extreme so a
// misconfigured tolerance never lets an opportunity through.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskExtreme:
		return 3
	}
	return 4
}

// Valid reports whether the label is one of the four known levels.
func (r RiskLevel) Valid() bool {
	return r.Rank() <= 3
}

// RiskLevelFromScore maps a mean risk score in [0,1] to a label.
// The mapping is monotonic: a higher mean never yields a lower label.
func RiskLevelFromScore(mean float64) RiskLevel {
	switch {
	case mean < 0.25:
		return RiskLow
	case mean < 0.45:
		return RiskMedium
	case mean < 0.70:
		return RiskHigh
	default:
		return RiskExtreme
	}
}
