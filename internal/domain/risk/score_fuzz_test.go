package risk

import (
	"math"
	"testing"
)

func FuzzScore(f *testing.F) {
	f.Add(2, 1, 0, false, 0.0)
	f.Add(0, 0, 0, true, 100.0)
	f.Add(1, 0, 3, true, 40.0)
	f.Add(1000, 1000, 1000, true, 0.5)
	f.Add(-1, 0, 0, false, 0.0)
	f.Add(0, 0, 0, true, math.NaN())

	f.Fuzz(func(t *testing.T, c, h, m int, hasPct bool, p float64) {
		in := Input{Critical: c, HighWarnings: h, MediumWarnings: m}
		if hasPct {
			in.CompliancePercent = &p
		}

		for _, r := range []Rounding{RoundHalfUp, RoundHalfEven} {
			a, err := ScoreWith(in, r)
			if in.Validate() != nil {
				if err == nil {
					t.Fatalf("expected error for %+v", in)
				}
				continue
			}
			if err != nil {
				t.Fatalf("unexpected error for %+v: %v", in, err)
			}
			if a.Score < 0 || a.Score > MaxScore {
				t.Fatalf("score %d out of range for %+v", a.Score, in)
			}
			if a.Level != LevelFor(a.Score) {
				t.Fatalf("level %s does not match score %d", a.Level, a.Score)
			}
			if a.Urgency != UrgencyFor(a.Level) {
				t.Fatalf("urgency %s does not match level %s", a.Urgency, a.Level)
			}
			if hasPct && p == 100 && a.Score != 0 {
				t.Fatalf("full compliance scored %d", a.Score)
			}
		}
	})
}
