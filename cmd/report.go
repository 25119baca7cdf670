package cmd

import (
	"time"

	"truebite-api/reports"

	"github.com/spf13/cobra"
)

var reportOutDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reporting commands",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Snapshot the manager dashboard as JSON to S3 (or --out for a local directory)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, pub, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB(db, logger)
		defer pub.Close()

		var writer reports.ObjectWriter = reports.DirWriter{Root: reportOutDir}
		if reportOutDir == "" {
			s3w, err := reports.NewS3Writer(cmd.Context(), cfg.S3.Region, cfg.S3.Bucket)
			if err != nil {
				return err
			}
			writer = s3w
		}

		report, err := reports.BuildDashboardReport(cmd.Context(), svc.Analytics, time.Now())
		if err != nil {
			return err
		}
		key, err := reports.NewExporter(writer, cfg.S3.Prefix).Export(cmd.Context(), report)
		if err != nil {
			return err
		}
		logger.Info("Report exported", "key", key, "bucket", cfg.S3.Bucket, "dir", reportOutDir)
		return nil
	},
}

func init() {
	reportExportCmd.Flags().StringVar(&reportOutDir, "out", "", "write to this directory instead of S3")
	reportCmd.AddCommand(reportExportCmd)
}
