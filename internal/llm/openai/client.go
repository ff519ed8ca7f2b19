package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arifhossain/receiptscan/internal/common"
	"github.com/arifhossain/receiptscan/internal/entity"
	"github.com/arifhossain/receiptscan/internal/llm"
)

// ExtractReceipt implements llm.ReceiptExtractor using a vision
// chat/completions call. The reply content is stripped of fences, parsed as
// JSON (a parse failure is a hard failure for retry purposes) and fed to the
// total normalizer. Strict schema validation is advisory only: a mismatch is
// logged, never fatal.
func (c *Client) ExtractReceipt(ctx context.Context, dataURL string) (entity.ExtractionResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"payload_bytes", len(dataURL),
	)

	body, err := llm.BuildChatRequest(c.cfg.Model, c.cfg.Temperature, dataURL)
	if err != nil {
		c.logger.Error("llm.extract.build_error", "req_id", rid, "error", err)
		return entity.ExtractionResult{}, nil, err
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, c.limiter, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractionResult{}, raw, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractionResult{}, raw, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		c.logger.Error("llm.extract.empty_response",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractionResult{}, raw, common.NewAppError("EMPTY_RESPONSE",
			"no content in model response", common.ErrEmptyResponse)
	}

	content := []byte(llm.StripCodeFences(cc.Choices[0].Message.Content))

	if vErr := llm.ValidateJSONAgainstSchema(llm.BuildReceiptJSONSchema(), content); vErr != nil {
		c.logger.Warn("llm.extract.schema_mismatch",
			"req_id", rid, "error", vErr,
		)
	}

	var loose any
	if err := json.Unmarshal(content, &loose); err != nil {
		c.logger.Error("llm.extract.content_parse_error",
			"req_id", rid, "error", err, "content_bytes", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ExtractionResult{}, content, fmt.Errorf("parse model content: %w", err)
	}

	out := llm.NormalizeExtraction(loose)

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"merchant", strOrEmpty(out.MerchantName),
		"date", strOrEmpty(out.ReceiptDate),
		"has_total", out.Total != nil,
		"invoice_type", string(out.InvoiceType),
		"currency", out.Currency,
		"confidence", out.ConfidenceScore,
		"items", len(out.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
