package risk

import (
	"math"
	"strconv"
	"strings"
)

const lakh = 100000

// Financial compares the fine exposure of a site against the cost of fixing it.
type Financial struct {
	PotentialFine    float64 `json:"potential_fine"`
	ComplianceCost   float64 `json:"compliance_cost"`
	PotentialSavings float64 `json:"potential_savings"`
	ROIPercentage    float64 `json:"roi_percentage"`
	FinancialRisk    Level   `json:"financial_risk_level"`
}

// FinancialImpact parses the model's rupee estimates and derives savings and ROI.
func FinancialImpact(fine, cost string) Financial {
	f := ParseRupees(fine)
	c := ParseRupees(cost)

	out := Financial{
		PotentialFine:    f,
		ComplianceCost:   c,
		PotentialSavings: f - c,
		FinancialRisk:    LevelLow,
	}
	if c > 0 {
		out.ROIPercentage = out.PotentialSavings / c * 100
	}
	switch {
	case f > 100000:
		out.FinancialRisk = LevelHigh
	case f > 50000:
		out.FinancialRisk = LevelMedium
	}
	return out
}

// ParseRupees reads amounts such as "₹35,000", "5,00,000" or "₹2.5 lakh".
// Anything unparseable is 0.
func ParseRupees(s string) float64 {
	cleaned := strings.ReplaceAll(s, "₹", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))

	mult := 1.0
	if strings.Contains(cleaned, "lakh") {
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "lakh", ""))
		mult = lakh
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v * mult
}
