// Package standards holds the safety code reference used to ground model
// findings and look up penalties.
package standards

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed standards.json
var defaultData []byte

// ErrNotFound is returned when a code is not in the reference.
var ErrNotFound = errors.New("standard not found")

// Standard is one safety code.
type Standard struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Requirement string `json:"requirement"`
	Penalty     string `json:"penalty"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
}

// Summary counts standards per category and severity.
type Summary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	BySeverity map[string]int `json:"by_severity"`
}

// Reference is a read-only set of standards keyed by code.
// It is safe for concurrent use once built.
type Reference struct {
	list   []Standard
	byCode map[string]Standard
}

// New builds a reference. Later duplicates of a code replace earlier ones.
func New(list []Standard) (*Reference, error) {
	r := &Reference{byCode: make(map[string]Standard, len(list))}
	for i, s := range list {
		s.Code = strings.TrimSpace(s.Code)
		if s.Code == "" {
			return nil, fmt.Errorf("standard %d: empty code", i)
		}
		s.Severity = strings.ToUpper(strings.TrimSpace(s.Severity))
		s.Category = strings.ToUpper(strings.TrimSpace(s.Category))
		if _, dup := r.byCode[s.Code]; dup {
			for j := range r.list {
				if r.list[j].Code == s.Code {
					r.list[j] = s
				}
			}
		} else {
			r.list = append(r.list, s)
		}
		r.byCode[s.Code] = s
	}
	return r, nil
}

// Parse decodes a JSON array of standards.
func Parse(data []byte) (*Reference, error) {
	var list []Standard
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode standards: %w", err)
	}
	return New(list)
}

// LoadFile reads a JSON array of standards from path.
func LoadFile(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in dataset.
func Default() *Reference {
	r, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded standards: %v", err))
	}
	return r
}

// Load reads path, or returns the built-in dataset when path is empty.
func Load(path string) (*Reference, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Get looks a standard up by code.
func (r *Reference) Get(code string) (Standard, error) {
	s, ok := r.byCode[strings.TrimSpace(code)]
	if !ok {
		return Standard{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return s, nil
}

// Penalty returns the penalty text of a code.
func (r *Reference) Penalty(code string) (string, error) {
	s, err := r.Get(code)
	if err != nil {
		return "", err
	}
	return s.Penalty, nil
}

// Search filters by category and severity. Empty filters match everything.
func (r *Reference) Search(category, severity string) []Standard {
	category = strings.TrimSpace(category)
	severity = strings.TrimSpace(severity)
	out := make([]Standard, 0, len(r.list))
	for _, s := range r.list {
		if category != "" && !strings.EqualFold(s.Category, category) {
			continue
		}
		if severity != "" && !strings.EqualFold(s.Severity, severity) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// All returns a copy of every standard in load order.
func (r *Reference) All() []Standard {
	out := make([]Standard, len(r.list))
	copy(out, r.list)
	return out
}

// Len is the number of standards.
func (r *Reference) Len() int { return len(r.list) }

// Categories returns the distinct categories, sorted.
func (r *Reference) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range r.list {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		out = append(out, s.Category)
	}
	sort.Strings(out)
	return out
}

// Critical returns the CRITICAL severity standards.
func (r *Reference) Critical() []Standard {
	return r.Search("", "CRITICAL")
}

// Summary counts the reference.
func (r *Reference) Summary() Summary {
	sum := Summary{
		Total:      len(r.list),
		ByCategory: map[string]int{},
		BySeverity: map[string]int{},
	}
	for _, s := range r.list {
		sum.ByCategory[s.Category]++
		sum.BySeverity[s.Severity]++
	}
	return sum
}

// FormatForPrompt renders every standard as plain text for a model prompt.
func (r *Reference) FormatForPrompt() string {
	var b strings.Builder
	b.WriteString("INDIAN BIS CONSTRUCTION SAFETY STANDARDS:\n\n")
	for _, s := range r.list {
		fmt.Fprintf(&b, "%s\nTitle: %s\nRequirement: %s\nPenalty: %s\nSeverity: %s\nCategory: %s\n",
			s.Code, s.Title, s.Requirement, s.Penalty, s.Severity, s.Category)
		b.WriteString(strings.Repeat("-", 80))
		b.WriteString("\n\n")
	}
	return b.String()
}
