package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rameshiCode/aindependent-backend/internal/app"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

var log *logger.Logger

func main() {
	_ = godotenv.Load()

	var err error
	log, err = app.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error("Command failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aindependent",
		Short:         "Recovery companion backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newScheduleCmd(), newDeliverCmd())
	return root
}
