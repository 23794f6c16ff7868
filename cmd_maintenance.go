package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"minihospital/database"
	"minihospital/services"
)

func runSeed(cmd *cobra.Command, args []string) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.close()

	users, patients, err := database.SeedDefaults(cmd.Context(), app.store)
	if err != nil {
		return err
	}
	app.logger.Info("🌱 Seed complete", zap.Int("users", users), zap.Int("patients", patients))
	fmt.Fprintf(cmd.OutOrStdout(), "created %d users and %d patients\n", users, patients)
	return nil
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.close()

	count, err := app.patients.AnonymizeAll(cmd.Context(), services.SystemActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "anonymized %d records\n", count)
	return nil
}

func runRetention(cmd *cobra.Command, args []string) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.close()

	days := app.cfg.RetentionDays
	if cmd.Flags().Changed("days") {
		days = retentionDays
	}

	deleted, err := app.patients.ApplyRetention(cmd.Context(), services.SystemActor, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d records removed, retention %dd\n", deleted, days)
	return nil
}

func runExportPatients(cmd *cobra.Command, args []string) error {
	return runExport(cmd, func(ctx context.Context, app *application, w io.Writer) (int, error) {
		return app.patients.ExportPatientsCSV(ctx, services.SystemActor, w)
	})
}

func runExportLogs(cmd *cobra.Command, args []string) error {
	return runExport(cmd, func(ctx context.Context, app *application, w io.Writer) (int, error) {
		return app.audit.ExportLogsCSV(ctx, services.SystemActor, w)
	})
}

func runExport(cmd *cobra.Command, export func(context.Context, *application, io.Writer) (int, error)) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	n, err := export(cmd.Context(), app, w)
	if err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows to %s\n", n, exportOut)
	}
	return nil
}
