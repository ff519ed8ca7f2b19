package ingest

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	// register decoders for DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/arifhossain/receiptscan/constants"
	"github.com/arifhossain/receiptscan/internal/common"
)

// Limits are the eligibility ceilings for a candidate image.
type Limits struct {
	MaxBytes  int64
	MaxPixels int
}

// DefaultLimits returns the configured ceilings: 20 MB raw size, ~33 MP.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:  constants.MaxImageBytes,
		MaxPixels: constants.MaxImagePixels,
	}
}

// AllowedExt checks if a file extension is in the allowed image set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// CheckImage validates a candidate image before any network call is spent on
// it: existence, raw file size, and pixel resolution. Read-only probe.
//
// Failures are typed: common.ErrNotFound when the file does not exist,
// common.ErrTooLarge above lim.MaxBytes, common.ErrResolutionTooHigh when
// width*height exceeds lim.MaxPixels (an image exactly at the ceiling
// passes), and common.ErrValidation wrapping any unexpected probe error.
func CheckImage(path string, lim Limits) error {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.NewAppError("IMAGE_NOT_FOUND",
				fmt.Sprintf("image does not exist: %s", path), common.ErrNotFound)
		}
		return common.NewAppError("IMAGE_PROBE_FAILED",
			fmt.Sprintf("stat %s: %v", path, err), common.ErrValidation)
	}
	if st.IsDir() {
		return common.NewAppError("IMAGE_NOT_FOUND",
			fmt.Sprintf("path is a directory: %s", path), common.ErrNotFound)
	}

	if lim.MaxBytes > 0 && st.Size() > lim.MaxBytes {
		return common.NewAppError("IMAGE_TOO_LARGE",
			fmt.Sprintf("image is %d bytes, limit is %d", st.Size(), lim.MaxBytes),
			common.ErrTooLarge)
	}

	if !AllowedExt(filepath.Ext(path)) {
		return common.NewAppError("IMAGE_UNSUPPORTED",
			fmt.Sprintf("unsupported image extension: %q", filepath.Ext(path)),
			common.ErrValidation)
	}

	f, err := os.Open(path)
	if err != nil {
		return common.NewAppError("IMAGE_PROBE_FAILED",
			fmt.Sprintf("open %s: %v", path, err), common.ErrValidation)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return common.NewAppError("IMAGE_PROBE_FAILED",
			fmt.Sprintf("decode image header: %v", err), common.ErrValidation)
	}

	if lim.MaxPixels > 0 && cfg.Width*cfg.Height > lim.MaxPixels {
		return common.NewAppError("IMAGE_RESOLUTION_TOO_HIGH",
			fmt.Sprintf("image is %dx%d (%d px), limit is %d px",
				cfg.Width, cfg.Height, cfg.Width*cfg.Height, lim.MaxPixels),
			common.ErrResolutionTooHigh)
	}
	return nil
}
