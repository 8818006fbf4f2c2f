package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rameshiCode/aindependent-backend/internal/app"
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background sweeps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, log, app.Options{Migrate: !skipMigrate})
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			return a.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, log, app.Options{Migrate: true})
			if err != nil {
				return err
			}
			a.Close(ctx)
			log.Info("Migrations complete")
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run a scheduling pass for one user, or the full sweep",
		Example: `  aindependent schedule --user 0b6f9c1e-5c1a-4d4e-9f0a-3f2b8c7d6e5a
  aindependent schedule`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, log, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if userFlag == "" {
				report, err := a.Modules.Sweeps.RunScheduling(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "users=%d rescored=%d scheduled=%d failed=%d\n",
					report.Users, report.Rescored, report.Scheduled, report.Failed)
				return nil
			}
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			if err := a.Modules.Sweeps.Rescore(ctx, userID); err != nil {
				return err
			}
			res, err := a.Modules.Runner.Run(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "outcome=%s candidates=%d scheduled=%d discarded=%d\n",
				res.Outcome, len(res.Candidates), len(res.Scheduled), len(res.Discarded))
			for _, n := range res.Scheduled {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s p=%d at=%s %q\n",
					n.Kind, n.Priority, n.ScheduledFor.Format("2006-01-02 15:04 MST"), n.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user id to schedule (default: every profile)")
	return cmd
}

func newDeliverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliver",
		Short: "Deliver every due notification once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, log, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			report, err := a.Modules.Sweeps.RunDelivery(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due=%d sent=%d skipped=%d failed=%d\n",
				report.Due, report.Sent, report.Skipped, report.Failed)
			return nil
		},
	}
}
