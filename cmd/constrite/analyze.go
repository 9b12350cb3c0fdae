package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/constrite/internal/application"
	appinspections "github.com/bryanwahyu/constrite/internal/application/inspections"
	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/infra/db"
)

var analyzeOpts struct {
	site    inspection.SiteInfo
	asJSON  bool
	persist bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze IMAGE",
	Short: "Analyse one site photo and print the safety report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if info, err := os.Stat(args[0]); err == nil && info.Size() > cfg.MaxUploadBytes() {
			return fmt.Errorf("%s is larger than %d MB", args[0], cfg.Server.MaxUploadMB)
		}

		ref, err := loadStandards()
		if err != nil {
			return err
		}
		analyzer, err := newAnalyzer(ctx)
		if err != nil {
			return err
		}
		svc := &appinspections.Service{
			Analyzer: analyzer,
			Prompt:   promptFor(ref),
			Clock:    application.SystemClock{},
			Log:      logger,
			Rounding: cfg.Rounding(),
		}
		if analyzeOpts.persist {
			conn, backend, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			if conn != nil {
				defer conn.Close()
				svc.Repo = db.NewInspectionRepository(conn, backend)
				svc.Failures = db.NewFailureRepository(conn, backend)
			}
		}

		in, err := svc.Inspect(ctx, appinspections.InspectCommand{
			FileName:  filepath.Base(args[0]),
			Data:      data,
			Site:      analyzeOpts.site,
			CreatedBy: "cli",
		})
		if err != nil {
			return err
		}
		if analyzeOpts.asJSON {
			return printJSON(cmd.OutOrStdout(), in)
		}
		rep, err := analysis.BuildReport(in.Analysis, cfg.Rounding())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Inspection %s\n", in.ID)
		if in.Analysis.Degraded {
			fmt.Fprintln(out, mediumColor.Sprint("The model answer could not be read; retry with a clearer photo."))
		}
		return printReport(out, rep)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.site.SiteID, "site", "", "site identifier")
	f.StringVar(&analyzeOpts.site.Location, "location", "", "site location")
	f.StringVar(&analyzeOpts.site.Contractor, "contractor", "", "contractor name")
	f.StringVar(&analyzeOpts.site.ProjectType, "project-type", "", "project type")
	f.BoolVar(&analyzeOpts.asJSON, "json", false, "print the inspection as JSON")
	f.BoolVar(&analyzeOpts.persist, "save", false, "store the inspection in the configured database")
	rootCmd.AddCommand(analyzeCmd)
}
