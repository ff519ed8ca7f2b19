package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		flags   filterFlags
		format  string
		items   bool
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved receipts to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			logger := newLogger()
			cfg := common.LoadConfig()
			ctx := cmd.Context()

			db, repo, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			filter, err := flags.build(cmd)
			if err != nil {
				return err
			}
			recs, err := repo.List(ctx, filter)
			if err != nil {
				return err
			}

			out, err := export.NewService(logger).Export(recs, f, items)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = "receipts." + string(f)
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Printf("exported %d receipt(s) to %s\n", len(recs), outPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "export format (json|csv|xlsx)")
	cmd.Flags().BoolVar(&items, "items", false, "csv only: one row per line item")
	cmd.Flags().StringVar(&outPath, "out", "", "output file path")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate counts and sums by type and currency",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := common.LoadConfig()
			ctx := cmd.Context()

			db, repo, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			stats, err := repo.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}
