package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// Input validation and sanitization utilities

var siteIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateSiteID validates site ID format
func ValidateSiteID(site string) error {
	if site == "" {
		return fmt.Errorf("site ID cannot be empty")
	}
	if !siteIDPattern.MatchString(site) {
		return fmt.Errorf("invalid site ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateInspectionID expects a UUID
func ValidateInspectionID(id string) error {
	if id == "" {
		return fmt.Errorf("inspection ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid inspection ID format")
	}
	return nil
}

// ValidateStatus parses a follow-up status
func ValidateStatus(s string) (inspection.Status, error) {
	st, ok := inspection.ParseStatus(s)
	if !ok {
		return "", fmt.Errorf("invalid status: %q (allowed: active, in_progress, resolved, archived)", s)
	}
	return st, nil
}

// ValidateRiskLevel parses an optional risk level filter. Empty is any level.
func ValidateRiskLevel(s string) (risk.Level, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	l, ok := risk.ParseLevel(s)
	if !ok {
		return "", fmt.Errorf("invalid risk level: %q (allowed: LOW, MEDIUM, HIGH, CRITICAL)", s)
	}
	return l, nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
