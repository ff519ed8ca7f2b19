package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/llm/openai"
	"github.com/arifhossain/receiptscan/internal/pipeline"
	"github.com/arifhossain/receiptscan/internal/receipts"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract a receipt from an image and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := common.LoadConfig()
			// The credential check happens here, before any request.
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			db, repo, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			client := openai.NewClient(openai.Config{
				APIKey:      cfg.LLM.APIKey,
				BaseURL:     cfg.LLM.BaseURL,
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				Timeout:     cfg.LLM.Timeout,
				RateLimit:   rate.Limit(1),
			}, logger)

			proc := pipeline.NewProcessor(logger, pipeline.Config{
				MaxAttempts: cfg.Scan.MaxAttempts,
			}, client)

			svc := receipts.NewService(repo, proc, logger)
			rec, err := svc.Scan(ctx, args[0])
			if err != nil {
				return err
			}

			if rec.ErrorMessage != nil {
				fmt.Fprintf(os.Stderr, "scan saved with error: %s\n", *rec.ErrorMessage)
			}
			return printJSON(rec)
		},
	}
	return cmd
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
