package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "receiptscan",
		Short:         "Scan receipt images into structured records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newScanCmd(),
		newListCmd(),
		newShowCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newExportCmd(),
		newStatsCmd(),
	)
	return root
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("RECEIPTS_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore opens the local receipt store from configuration.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*sql.DB, repository.ReceiptRepository, error) {
	db, err := repository.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewReceiptRepository(db, logger), nil
}
