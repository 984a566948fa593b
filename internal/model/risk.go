package model

// Score thresholds mapping a composed risk score to a level.
// These are policy constants shared by the compositor and by callers that
// decide when to trigger follow-up actions (e.g. the conditional deep scan).
const (
	// HighRiskThreshold is the minimum score classified as HIGH.
	HighRiskThreshold = 70

	// MediumRiskThreshold is the minimum score classified as MEDIUM.
	MediumRiskThreshold = 35

	// MaxRiskScore is the upper clamp for the composed score.
	MaxRiskScore = 100
)

// RiskLevel classifies a composed risk score.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type RiskLevel int

const (
	// RiskLow indicates no or weak risk signals (score below 35).
	RiskLow RiskLevel = iota

	// RiskMedium indicates notable risk signals (score 35-69).
	RiskMedium

	// RiskHigh indicates strong risk signals (score 70 and above).
	RiskHigh
)

// String returns a human-readable representation of the risk level.
func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LevelForScore maps a clamped score to its risk level.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClampScore bounds a raw additive score into [0, MaxRiskScore].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxRiskScore {
		return MaxRiskScore
	}
	return score
}
