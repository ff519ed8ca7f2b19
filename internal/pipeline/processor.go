package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/entity"
	"github.com/arifhossain/receiptscan/internal/llm"
)

// SleepFunc waits for d or until ctx is done. Injectable so tests replace
// real sleeping with immediate advancement.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config holds retry policy knobs for the scan processor.
type Config struct {
	MaxAttempts int       // default 3
	Sleep       SleepFunc // default real sleep
}

// Processor drives repeated extraction attempts against the vision model
// with exponential backoff. Attempts are strictly sequential; a later
// attempt's result supersedes any earlier partial state.
type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor llm.ReceiptExtractor
}

func NewProcessor(logger *slog.Logger, cfg Config, extractor llm.ReceiptExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Sleep == nil {
		cfg.Sleep = defaultSleep
	}
	return &Processor{Logger: logger, Cfg: cfg, Extractor: extractor}
}

// Run executes up to MaxAttempts extraction attempts for an already-encoded
// image and always returns a value, never an error. A response carrying a
// total or an explicit error message ends the loop. A response with neither
// is a soft failure and is retried without delay; a transport/parse error is
// a hard failure and backs off 2^n seconds before attempt n+1. Exhaustion
// yields a terminal result whose ErrorMessage names the cause and the number
// of attempts made.
//
// The second return value is the raw JSON content of the last reply, for
// callers that keep it alongside the record.
func (p *Processor) Run(ctx context.Context, dataURL string) (entity.ExtractionResult, []byte) {
	var lastErr error
	var lastRaw []byte

	for attempt := 1; attempt <= p.Cfg.MaxAttempts; attempt++ {
		p.Logger.Info("scan.attempt",
			"status", string(constants.ScanStatusAttempting),
			"attempt", attempt,
			"max_attempts", p.Cfg.MaxAttempts,
		)

		res, raw, err := p.Extractor.ExtractReceipt(ctx, dataURL)
		if raw != nil {
			lastRaw = raw
		}

		if err == nil && res.HasData() {
			p.Logger.Info("scan.done",
				"status", string(constants.ScanStatusDone),
				"attempt", attempt,
				"has_error_message", res.ErrorMessage != nil,
			)
			return res, lastRaw
		}

		if err == nil {
			// Soft failure: the model answered but gave nothing usable.
			// No backoff since no exception occurred.
			lastErr = fmt.Errorf("model returned no total and no error message")
			p.Logger.Warn("scan.soft_failure",
				"status", string(constants.ScanStatusSoftRetry),
				"attempt", attempt,
			)
			continue
		}

		lastErr = err
		if attempt == p.Cfg.MaxAttempts {
			break
		}

		delay := time.Duration(1<<uint(attempt)) * time.Second
		p.Logger.Warn("scan.hard_failure",
			"status", string(constants.ScanStatusRetrying),
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
		if sErr := p.Cfg.Sleep(ctx, delay); sErr != nil {
			lastErr = fmt.Errorf("scan cancelled during backoff: %w", sErr)
			return p.failureResult(attempt, lastErr), lastRaw
		}
	}

	p.Logger.Error("scan.exhausted",
		"status", string(constants.ScanStatusFailed),
		"attempts", p.Cfg.MaxAttempts,
		"error", lastErr,
	)
	return p.failureResult(p.Cfg.MaxAttempts, lastErr), lastRaw
}

// failureResult is the terminal value when attempts are exhausted or the
// scan was abandoned: callers always receive a savable record, never an
// exception, so a captured image is never lost.
func (p *Processor) failureResult(attempts int, cause error) entity.ExtractionResult {
	msg := fmt.Sprintf("extraction failed after %d attempt(s)", attempts)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return entity.ExtractionResult{
		InvoiceType:  constants.Unknown,
		Items:        []entity.LineItem{},
		Currency:     constants.DefaultCurrency,
		ErrorMessage: &msg,
	}
}
