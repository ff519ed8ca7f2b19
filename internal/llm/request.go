package llm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
)

// ReadImageDataURL reads the image at path and encodes it as a base64 data
// URL suitable for a vision message part.
func ReadImageDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	mt := mime.TypeByExtension("." + ext)
	if mt == "" {
		// fallbacks
		switch ext {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		default:
			mt = "application/octet-stream"
		}
	}
	data := base64.StdEncoding.EncodeToString(b)
	return "data:" + mt + ";base64," + data, nil
}

// BuildChatRequest assembles the outbound chat/completions body: the fixed
// extraction instruction plus the encoded image, with deterministic decoding
// and a JSON-object-only directive. The payload-size ceiling is enforced
// here, before any network call is issued.
func BuildChatRequest(model string, temperature float32, dataURL string) (map[string]any, error) {
	if len(dataURL) > constants.MaxPayloadBytes {
		return nil, common.NewAppError("PAYLOAD_TOO_LARGE",
			fmt.Sprintf("encoded image is %d bytes, limit is %d", len(dataURL), constants.MaxPayloadBytes),
			common.ErrPayloadTooLarge)
	}

	prompt := BuildExtractionPrompt() +
		"\n\nJSON Schema:\n" + mustJSON(BuildReceiptJSONSchema())

	return map[string]any{
		"model":           model,
		"temperature":     temperature,
		"max_tokens":      constants.ExtractionMaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
