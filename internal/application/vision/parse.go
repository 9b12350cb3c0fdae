package vision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
)

// ErrUnparseable is returned when the model text is not a JSON object even after repair.
var ErrUnparseable = errors.New("model response is not valid JSON")

// number accepts JSON numbers, numeric strings and null.
type number struct {
	v   float64
	set bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// non-numeric text such as "unknown" is treated as absent
		return nil
	}
	n.v, n.set = v, true
	return nil
}

func (n number) asInt() int {
	if !n.set || math.IsNaN(n.v) || math.IsInf(n.v, 0) {
		return 0
	}
	return int(math.Round(n.v))
}

func (n number) ptr() *float64 {
	if !n.set {
		return nil
	}
	v := n.v
	return &v
}

type wireViolation struct {
	Violation      string `json:"violation"`
	Location       string `json:"location"`
	StandardCode   string `json:"bis_code"`
	RiskLevel      string `json:"risk_level"`
	Confidence     number `json:"confidence"`
	Recommendation string `json:"recommendation"`
}

type wireResult struct {
	TotalWorkers            number          `json:"total_workers"`
	WorkersCompliant        number          `json:"workers_compliant"`
	WorkersNonCompliant     number          `json:"workers_non_compliant"`
	CriticalViolations      []wireViolation `json:"critical_violations"`
	Warnings                []wireViolation `json:"warnings"`
	CompliantItems          []string        `json:"compliant_items"`
	OverallComplianceScore  number          `json:"overall_compliance_score"`
	RiskAssessment          string          `json:"risk_assessment"`
	ImmediateActions        []string        `json:"immediate_actions"`
	EstimatedComplianceCost string          `json:"estimated_compliance_cost"`
	PotentialFine           string          `json:"potential_fine_if_inspected"`
}

// Parse decodes the model text into a Result. It strips markdown fences,
// skips leading prose and appends missing closing braces before giving up.
func Parse(text string) (*analysis.Result, error) {
	cleaned := clean(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnparseable)
	}

	var w wireResult
	err := json.Unmarshal([]byte(cleaned), &w)
	if err != nil {
		repaired, ok := repairBraces(cleaned)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		w = wireResult{}
		if err2 := json.Unmarshal([]byte(repaired), &w); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
	}
	return w.result(), nil
}

// ParseOrDegrade is Parse that falls back to a placeholder asking for a retry.
func ParseOrDegrade(text string) (*analysis.Result, error) {
	r, err := Parse(text)
	if err != nil {
		return Degraded(), err
	}
	return r, nil
}

// Degraded is the placeholder result used when the model answer is unusable.
func Degraded() *analysis.Result {
	score := 50.0
	return &analysis.Result{
		CriticalViolations: []analysis.Violation{},
		Warnings: []analysis.Violation{{
			Violation:      "Unable to analyze image completely",
			Location:       "General",
			StandardCode:   "N/A",
			RiskLevel:      analysis.SeverityMedium,
			Recommendation: "Please try again with a clearer image",
		}},
		CompliantItems:          []string{},
		OverallComplianceScore:  &score,
		RiskAssessment:          "MEDIUM",
		ImmediateActions:        []string{"Retry analysis with better image quality"},
		EstimatedComplianceCost: "₹0",
		PotentialFine:           "₹0",
		Degraded:                true,
	}
}

func clean(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(s[len("```json"):])
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(s[3:])
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	s = strings.TrimSpace(strings.Trim(s, "`"))
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	return s
}

func repairBraces(s string) (string, bool) {
	missing := strings.Count(s, "{") - strings.Count(s, "}")
	if missing <= 0 {
		return "", false
	}
	return s + strings.Repeat("}", missing), true
}

func (w wireResult) result() *analysis.Result {
	r := &analysis.Result{
		TotalWorkers:            w.TotalWorkers.asInt(),
		WorkersCompliant:        w.WorkersCompliant.asInt(),
		WorkersNonCompliant:     w.WorkersNonCompliant.asInt(),
		CriticalViolations:      violations(w.CriticalViolations),
		Warnings:                violations(w.Warnings),
		CompliantItems:          orEmpty(w.CompliantItems),
		OverallComplianceScore:  w.OverallComplianceScore.ptr(),
		RiskAssessment:          w.RiskAssessment,
		ImmediateActions:        w.ImmediateActions,
		EstimatedComplianceCost: w.EstimatedComplianceCost,
		PotentialFine:           w.PotentialFine,
	}
	if r.RiskAssessment == "" {
		r.RiskAssessment = "MEDIUM"
	}
	if r.ImmediateActions == nil {
		r.ImmediateActions = []string{"Unable to analyze - please retry"}
	}
	if r.EstimatedComplianceCost == "" {
		r.EstimatedComplianceCost = "₹0"
	}
	if r.PotentialFine == "" {
		r.PotentialFine = "₹0"
	}
	return r
}

func violations(in []wireViolation) []analysis.Violation {
	out := make([]analysis.Violation, 0, len(in))
	for _, v := range in {
		out = append(out, analysis.Violation{
			Violation:      v.Violation,
			Location:       v.Location,
			StandardCode:   v.StandardCode,
			RiskLevel:      v.RiskLevel,
			Confidence:     v.Confidence.ptr(),
			Recommendation: v.Recommendation,
		})
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
