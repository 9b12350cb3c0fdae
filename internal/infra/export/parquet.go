// Package export writes analytics events as Parquet for warehouse loading.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
)

// EventRow is one analytics event in the exported file.
type EventRow struct {
	InspectionID        string    `parquet:"inspection_id,snappy"`
	Timestamp           time.Time `parquet:"timestamp,snappy"`
	SiteID              string    `parquet:"site_id,snappy,dict"`
	Location            *string   `parquet:"location,optional,snappy"`
	Contractor          *string   `parquet:"contractor,optional,snappy,dict"`
	ProjectType         *string   `parquet:"project_type,optional,snappy,dict"`
	TotalWorkers        int32     `parquet:"total_workers,snappy"`
	CompliantWorkers    int32     `parquet:"compliant_workers,snappy"`
	NonCompliantWorkers int32     `parquet:"non_compliant_workers,snappy"`
	ComplianceScore     *float64  `parquet:"compliance_score,optional,snappy"`
	RiskScore           int32     `parquet:"risk_score,snappy"`
	RiskLevel           string    `parquet:"risk_level,snappy,dict"`
	CriticalCount       int32     `parquet:"critical_count,snappy"`
	WarningCount        int32     `parquet:"warning_count,snappy"`
	ImageURL            *string   `parquet:"image_url,optional,snappy"`
	ProcessingMS        int64     `parquet:"processing_ms,snappy"`
}

// Rows converts events to export rows. Empty strings become nulls.
func Rows(events []*inspection.Event) []EventRow {
	out := make([]EventRow, 0, len(events))
	for _, ev := range events {
		row := EventRow{
			InspectionID:        ev.InspectionID,
			Timestamp:           ev.Timestamp.UTC(),
			SiteID:              ev.SiteID,
			Location:            optional(ev.Location),
			Contractor:          optional(ev.Contractor),
			ProjectType:         optional(ev.ProjectType),
			TotalWorkers:        int32(ev.TotalWorkers),
			CompliantWorkers:    int32(ev.CompliantWorkers),
			NonCompliantWorkers: int32(ev.NonCompliantWorkers),
			RiskScore:           int32(ev.RiskScore),
			RiskLevel:           string(ev.RiskLevel),
			CriticalCount:       int32(ev.CriticalCount),
			WarningCount:        int32(ev.WarningCount),
			ImageURL:            optional(ev.ImageURL),
			ProcessingMS:        ev.ProcessingMS,
		}
		if ev.ComplianceScore != nil {
			p := *ev.ComplianceScore
			row.ComplianceScore = &p
		}
		out = append(out, row)
	}
	return out
}

// WriteEvents encodes events as a single Parquet file on w.
func WriteEvents(w io.Writer, events []*inspection.Event) error {
	writer := parquet.NewGenericWriter[EventRow](w)
	if _, err := writer.Write(Rows(events)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write events: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// FileName is the default export name for a window ending at now.
func FileName(now time.Time, days int) string {
	return fmt.Sprintf("inspection_events_%s_%dd.parquet", now.UTC().Format("20060102"), days)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
