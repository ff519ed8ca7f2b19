package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
)

// filterFlags binds the shared list/export filter flags.
type filterFlags struct {
	invoiceType string
	fromDate    string
	toDate      string
	merchant    string
	minTotal    float64
	maxTotal    float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.invoiceType, "type", "", "filter by invoice type (retail|restaurant|utility|service|unknown)")
	cmd.Flags().StringVar(&f.fromDate, "from", "", "filter by receipt date >= YYYY-MM-DD")
	cmd.Flags().StringVar(&f.toDate, "to", "", "filter by receipt date <= YYYY-MM-DD")
	cmd.Flags().StringVar(&f.merchant, "merchant", "", "filter by merchant name substring")
	cmd.Flags().Float64Var(&f.minTotal, "min-total", 0, "filter by total >= amount")
	cmd.Flags().Float64Var(&f.maxTotal, "max-total", 0, "filter by total <= amount")
}

func (f *filterFlags) build(cmd *cobra.Command) (entity.ReceiptFilter, error) {
	var filter entity.ReceiptFilter
	if f.invoiceType != "" {
		t, ok := constants.ParseInvoiceType(f.invoiceType)
		if !ok {
			return filter, fmt.Errorf("unknown invoice type %q", f.invoiceType)
		}
		filter.InvoiceType = &t
	}
	if f.fromDate != "" {
		filter.FromDate = &f.fromDate
	}
	if f.toDate != "" {
		filter.ToDate = &f.toDate
	}
	filter.Merchant = f.merchant
	if cmd.Flags().Changed("min-total") {
		filter.MinTotal = &f.minTotal
	}
	if cmd.Flags().Changed("max-total") {
		filter.MaxTotal = &f.maxTotal
	}
	return filter, nil
}

func newListCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved receipts",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return printJSON(recs)
		},
	}
	flags.register(cmd)
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one receipt by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid receipt id: %w", err)
			}

			logger := newLogger()
			cfg := common.LoadConfig()
			ctx := cmd.Context()

			db, repo, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			rec, err := repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}
}
