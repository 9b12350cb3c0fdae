package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
)

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgMagenta, color.Bold)
	mediumColor   = color.New(color.FgYellow)
	lowColor      = color.New(color.FgGreen)
)

func levelColor(l risk.Level) *color.Color {
	switch l {
	case risk.LevelCritical:
		return criticalColor
	case risk.LevelHigh:
		return highColor
	case risk.LevelMedium:
		return mediumColor
	default:
		return lowColor
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAssessment(w io.Writer, a risk.Assessment) {
	c := levelColor(a.Level)
	fmt.Fprintf(w, "Risk score: %s  (%s, act %s)\n",
		c.Sprintf("%d/100", a.Score), c.Sprint(a.Level), a.Urgency)
	fmt.Fprintf(w, "Critical: %d  Warnings: %d\n", a.CriticalCount, a.WarningCount)
	if a.Recommendation != "" {
		fmt.Fprintln(w, a.Recommendation)
	}
}

// printReport renders the action plan as a table under the headline numbers.
func printReport(w io.Writer, rep *analysis.Report) error {
	printAssessment(w, rep.Assessment)
	fmt.Fprintf(w, "Workers: %d  Compliance: %s\n", rep.Summary.TotalWorkers, rep.Summary.ComplianceRate)
	if rep.Financial.PotentialFine > 0 {
		fmt.Fprintf(w, "Potential fine: ₹%.0f  Compliance cost: ₹%.0f  Savings: ₹%.0f\n",
			rep.Financial.PotentialFine, rep.Financial.ComplianceCost, rep.Financial.PotentialSavings)
	}
	if len(rep.Actions) == 0 {
		fmt.Fprintln(w, "No corrective actions.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Urgency", "Violation", "Location", "Code", "Action", "Time"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	var data [][]string
	for _, a := range rep.Actions {
		data = append(data, []string{
			strconv.Itoa(a.Priority),
			a.Urgency,
			a.Violation,
			a.Location,
			a.StandardCode,
			a.Action,
			a.EstimatedTime,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printStandards(w io.Writer, list []standards.Standard) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "Category", "Severity", "Title", "Penalty"})
	var data [][]string
	for _, s := range list {
		data = append(data, []string{s.Code, s.Category, s.Severity, s.Title, s.Penalty})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
