package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
	"github.com/arifhossain/receiptscan/internal/receipts"
)

func newEditCmd() *cobra.Command {
	var (
		merchant string
		date     string
		number   string
		typ      string
		subtotal float64
		tax      float64
		total    float64
		currency string
		payment  string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit fields of a saved receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid receipt id: %w", err)
			}

			var patch entity.ReceiptPatch
			if cmd.Flags().Changed("merchant") {
				patch.MerchantName = &merchant
			}
			if cmd.Flags().Changed("date") {
				patch.ReceiptDate = &date
			}
			if cmd.Flags().Changed("number") {
				patch.ReceiptNumber = &number
			}
			if cmd.Flags().Changed("type") {
				t, ok := constants.ParseInvoiceType(typ)
				if !ok {
					return fmt.Errorf("unknown invoice type %q", typ)
				}
				patch.InvoiceType = &t
			}
			if cmd.Flags().Changed("subtotal") {
				patch.Subtotal = &subtotal
			}
			if cmd.Flags().Changed("tax") {
				patch.Tax = &tax
			}
			if cmd.Flags().Changed("total") {
				patch.Total = &total
			}
			if cmd.Flags().Changed("currency") {
				patch.Currency = &currency
			}
			if cmd.Flags().Changed("payment") {
				patch.PaymentMethod = &payment
			}

			logger := newLogger()
			cfg := common.LoadConfig()
			ctx := cmd.Context()

			db, repo, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc := receipts.NewService(repo, nil, logger)
			rec, err := svc.Edit(ctx, id, patch)
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	cmd.Flags().StringVar(&date, "date", "", "receipt date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&number, "number", "", "receipt number")
	cmd.Flags().StringVar(&typ, "type", "", "invoice type")
	cmd.Flags().Float64Var(&subtotal, "subtotal", 0, "subtotal amount")
	cmd.Flags().Float64Var(&tax, "tax", 0, "tax amount")
	cmd.Flags().Float64Var(&total, "total", 0, "total amount")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	cmd.Flags().StringVar(&payment, "payment", "", "payment method")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved receipt",
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

			ok, err := repo.Delete(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no receipt with id %s", id)
			}
			fmt.Println("deleted", id)
			return nil
		},
	}
}
