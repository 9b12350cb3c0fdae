package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput is returned for negative counts or a compliance
// percentage outside [0, 100].
var ErrInvalidInput = errors.New("invalid risk input")

// Points added per finding.
const (
	CriticalPoints      = 20
	HighWarningPoints   = 10
	MediumWarningPoints = 5

	MaxScore = 100
)

// Rounding selects how a fractional scaled score becomes an integer.
type Rounding string

const (
	// RoundHalfUp rounds .5 towards +Inf (21.5 -> 22, 22.5 -> 23).
	RoundHalfUp Rounding = "half_up"
	// RoundHalfEven rounds .5 to the nearest even integer (21.5 -> 22, 22.5 -> 22).
	RoundHalfEven Rounding = "half_even"
)

// ParseRounding maps a config value to a Rounding. Empty means RoundHalfUp.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	}
	return "", fmt.Errorf("unknown rounding mode %q (allowed: half_up, half_even)", s)
}

func (r Rounding) apply(v float64) float64 {
	if r == RoundHalfEven {
		return math.RoundToEven(v)
	}
	return math.Floor(v + 0.5)
}

// Score computes the assessment using round-half-up.
func Score(in Input) (Assessment, error) {
	return ScoreWith(in, RoundHalfUp)
}

// ScoreWith computes the assessment with the given rounding mode.
// It has no side effects.
func ScoreWith(in Input, rounding Rounding) (Assessment, error) {
	if err := in.Validate(); err != nil {
		return Assessment{}, err
	}

	// float64 keeps huge counts from overflowing before the clamp
	acc := float64(in.Critical)*CriticalPoints +
		float64(in.HighWarnings)*HighWarningPoints +
		float64(in.MediumWarnings)*MediumWarningPoints

	if in.CompliancePercent != nil {
		acc = acc * (100 - *in.CompliancePercent) / 100
	}

	score := clamp(rounding.apply(acc))
	level := LevelFor(score)

	a := Assessment{
		Score:          score,
		Level:          level,
		Urgency:        UrgencyFor(level),
		Recommendation: RecommendationFor(level),
		Color:          ColorFor(level),
		CriticalCount:  in.Critical,
		WarningCount:   in.HighWarnings + in.MediumWarnings,
	}
	if in.CompliancePercent != nil {
		p := *in.CompliancePercent
		a.CompliancePercentage = &p
	}
	return a, nil
}

// Validate reports ErrInvalidInput for out-of-range fields.
func (in Input) Validate() error {
	switch {
	case in.Critical < 0:
		return fmt.Errorf("%w: critical count %d is negative", ErrInvalidInput, in.Critical)
	case in.HighWarnings < 0:
		return fmt.Errorf("%w: high warning count %d is negative", ErrInvalidInput, in.HighWarnings)
	case in.MediumWarnings < 0:
		return fmt.Errorf("%w: medium warning count %d is negative", ErrInvalidInput, in.MediumWarnings)
	}
	if p := in.CompliancePercent; p != nil {
		if math.IsNaN(*p) || *p < 0 || *p > 100 {
			return fmt.Errorf("%w: compliance percentage %v outside [0, 100]", ErrInvalidInput, *p)
		}
	}
	return nil
}

func clamp(v float64) int {
	if v <= 0 {
		return 0
	}
	if v >= MaxScore {
		return MaxScore
	}
	return int(v)
}

// LevelFor maps a clamped score to its tier using half-open intervals
// [0,25) [25,50) [50,75) [75,100].
func LevelFor(score int) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// UrgencyFor maps a tier to its response window.
func UrgencyFor(l Level) Urgency {
	switch l {
	case LevelCritical:
		return UrgencyImmediate
	case LevelHigh:
		return Urgency24Hours
	case LevelMedium:
		return Urgency48Hours
	default:
		return UrgencyWeekly
	}
}

// RecommendationFor returns the operator-facing advice for a tier.
func RecommendationFor(l Level) string {
	switch l {
	case LevelCritical:
		return "CRITICAL RISK: Site operations must be halted immediately. " +
			"Multiple life-threatening violations detected. " +
			"Emergency safety review required before resuming work."
	case LevelHigh:
		return "HIGH RISK: Serious safety violations present. " +
			"Immediate corrective action required within 24 hours. " +
			"Site supervisor must address all critical issues before next shift."
	case LevelMedium:
		return "MEDIUM RISK: Several safety improvements needed. " +
			"Address violations within 48 hours. " +
			"Schedule safety training and equipment upgrades."
	default:
		return "LOW RISK: Site shows good safety compliance. " +
			"Continue monitoring and maintain current safety standards. " +
			"Address minor warnings during routine inspections."
	}
}

// ColorFor returns the display colour used by dashboards for a tier.
func ColorFor(l Level) string {
	switch l {
	case LevelCritical:
		return "#B71C1C"
	case LevelHigh:
		return "#E53935"
	case LevelMedium:
		return "#FB8C00"
	default:
		return "#43A047"
	}
}

func equalFold(a, b string) bool { return strings.EqualFold(a, strings.TrimSpace(b)) }
