package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath    string
	retentionDays int
	exportOut     string

	rootCmd = &cobra.Command{
		Use:           "minihospital",
		Short:         "Patient record manager with field encryption, anonymization and auditing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe, // Defined in main.go
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the demo accounts and sample patients if missing",
		RunE:  runSeed, // Defined in cmd_maintenance.go
	}

	anonymizeCmd = &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize every patient not processed yet",
		RunE:  runAnonymize, // Defined in cmd_maintenance.go
	}

	retentionCmd = &cobra.Command{
		Use:   "retention",
		Short: "Delete patients older than the retention period",
		RunE:  runRetention, // Defined in cmd_maintenance.go
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export decrypted data as CSV",
	}
	exportPatientsCmd = &cobra.Command{
		Use:   "patients",
		Short: "Export the decrypted patient table",
		RunE:  runExportPatients, // Defined in cmd_maintenance.go
	}
	exportLogsCmd = &cobra.Command{
		Use:   "logs",
		Short: "Export the audit trail",
		RunE:  runExportLogs, // Defined in cmd_maintenance.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "optional YAML configuration file")

	retentionCmd.Flags().IntVar(&retentionDays, "days", 0, "retention period in days (default RETENTION_DAYS)")

	exportCmd.PersistentFlags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	exportCmd.AddCommand(exportPatientsCmd, exportLogsCmd)

	rootCmd.AddCommand(serveCmd, seedCmd, anonymizeCmd, retentionCmd, exportCmd)
}
