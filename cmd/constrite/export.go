package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/constrite/internal/application"
	appanalytics "github.com/bryanwahyu/constrite/internal/application/analytics"
	"github.com/bryanwahyu/constrite/internal/infra/db"
	"github.com/bryanwahyu/constrite/internal/infra/export"
	"github.com/bryanwahyu/constrite/internal/middleware"
)

var exportOpts struct {
	days   int
	out    string
	upload bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recent analytics events to a Parquet file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		conn, backend, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		if conn == nil {
			return fmt.Errorf("export needs a database backend")
		}
		defer conn.Close()

		svc := &appanalytics.Service{
			Sink:  db.NewAnalyticsRepository(conn, backend),
			Clock: application.SystemClock{},
		}
		days := middleware.ValidateDays(exportOpts.days)
		events, err := svc.Events(ctx, days)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := export.WriteEvents(&buf, events); err != nil {
			return err
		}
		name := exportOpts.out
		if name == "" {
			name = export.FileName(time.Now(), days)
		}
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return err
		}
		logger.Info("export written", zap.String("file", name), zap.Int("events", len(events)))

		if exportOpts.upload {
			store, err := openImages(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("--upload needs minio.enabled")
			}
			key := "exports/" + export.FileName(time.Now(), days)
			if err := store.Upload(ctx, key, buf.Bytes(), "application/vnd.apache.parquet"); err != nil {
				return err
			}
			logger.Info("export uploaded", zap.String("bucket", store.Bucket()), zap.String("key", key))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d events -> %s\n", len(events), name)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.IntVar(&exportOpts.days, "days", 30, "days of history to export")
	f.StringVarP(&exportOpts.out, "out", "o", "", "output file (default inspection_events_<date>_<days>d.parquet)")
	f.BoolVar(&exportOpts.upload, "upload", false, "also upload the file to the MinIO bucket")
	rootCmd.AddCommand(exportCmd)
}
