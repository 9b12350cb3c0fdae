package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

// GetSystemPrompt provides the inspector role, the standards context and the JSON schema.
func GetSystemPrompt(ref *standards.Reference) string {
	var b strings.Builder
	b.WriteString("You are an expert construction safety inspector trained in Indian BIS (Bureau of Indian Standards) codes.\n\n")
	b.WriteString("Analyze the construction site image for ALL safety violations and compliances.\n\n")
	if ref != nil && ref.Len() > 0 {
		b.WriteString(ref.FormatForPrompt())
		b.WriteString("\n")
	}
	b.WriteString(detection)
	b.WriteString("\n")
	b.WriteString(schema)
	b.WriteString("\n")
	b.WriteString(guidelines)
	return b.String()
}

// GetUserPrompt builds the short message sent alongside the image.
func GetUserPrompt(site inspection.SiteInfo) string {
	var parts []string
	if site.SiteID != "" {
		parts = append(parts, "site "+site.SiteID)
	}
	if site.Location != "" {
		parts = append(parts, "location "+site.Location)
	}
	if site.ProjectType != "" {
		parts = append(parts, "project type "+site.ProjectType)
	}
	if len(parts) == 0 {
		return "Inspect this construction site photo and respond with the JSON per schema."
	}
	return fmt.Sprintf("Inspect this construction site photo (%s) and respond with the JSON per schema.", strings.Join(parts, ", "))
}

// Build returns the prompt pair for one inspection.
func Build(ref *standards.Reference, site inspection.SiteInfo) vision.Prompt {
	return vision.Prompt{System: GetSystemPrompt(ref), User: GetUserPrompt(site)}
}

const detection = `DETECTION REQUIREMENTS:
1. Count all visible workers in the image
2. Check Personal Protective Equipment (PPE) compliance:
   - Safety helmets (IS 2925:1984)
   - Safety harness if working at height above 2m (IS 3696:1966)
   - Safety footwear (IS 5216:1982)
   - High-visibility vests (IS 15750:2008)
3. Check structural safety:
   - Scaffolding guardrails and toe boards (IS 4014:1967)
   - Ladder safety (IS 14489:1998)
   - Safety nets if height > 3m (IS 4081:1996)
   - Excavation barriers (IS 1646:1997)
4. Check electrical safety:
   - Exposed wires (IS 694:1990)
   - Proper earthing (IS 3043:1987)
5. Check fire safety:
   - Fire extinguisher visibility (IS 2190:2010)
6. Identify CRITICAL life-threatening violations
7. Note compliant safety measures
`

const schema = `OUTPUT FORMAT (one valid JSON object, no markdown, no commentary):
{
  "total_workers": <number of visible workers>,
  "workers_compliant": <number wearing all required PPE>,
  "workers_non_compliant": <number missing any PPE>,
  "critical_violations": [
    {
      "violation": "<specific violation description>",
      "location": "<where in image: left/right/center/background/foreground>",
      "bis_code": "<relevant BIS code like IS_2925_1984>",
      "risk_level": "CRITICAL",
      "confidence": <integer 0-100>,
      "recommendation": "<specific action to fix>"
    }
  ],
  "warnings": [
    {
      "violation": "<warning description>",
      "location": "<location in image>",
      "bis_code": "<relevant BIS code>",
      "risk_level": "HIGH or MEDIUM",
      "confidence": <integer 0-100>,
      "recommendation": "<specific action>"
    }
  ],
  "compliant_items": ["<safety measures properly implemented>"],
  "overall_compliance_score": <integer 0-100>,
  "risk_assessment": "<CRITICAL/HIGH/MEDIUM/LOW>",
  "immediate_actions": ["<prioritized actions needed immediately>"],
  "estimated_compliance_cost": "₹<amount in rupees>",
  "potential_fine_if_inspected": "₹<total potential fines>"
}
`

const guidelines = `IMPORTANT GUIDELINES:
- Be specific about locations (e.g. "worker on left scaffolding").
- If something cannot be seen, list it as "Not visible/Cannot verify" in compliant_items.
- Use only BIS codes from the standards above.
- Give realistic cost estimates in Indian Rupees.
- Compliance score = (compliant items / total checkable items) x 100.
- Critical violations: immediate life threat (fall, electrical hazard, structural collapse).
- HIGH warnings: serious safety gaps (missing PPE, inadequate barriers).
- MEDIUM warnings: best practice improvements (signage, housekeeping).
- Confidence: 90-100 clear violation, 75-89 minor uncertainty, 60-74 partially obscured, below 60 needs manual review.

Respond ONLY with valid JSON. No additional text before or after.`
