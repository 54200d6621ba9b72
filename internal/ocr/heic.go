package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HEIC converters understood by convertHEIC.
const (
	HeifConvert = "heif-convert"
	Magick      = "magick"
	Sips        = "sips"
)

func isHEIC(ext string) bool {
	return ext == "heic" || ext == "heif"
}

// convertHEIC renders a HEIC/HEIF photo to a PNG that tesseract can read.
// The caller must run cleanup once the PNG is no longer needed.
func (e *Extractor) convertHEIC(ctx context.Context, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "invoice-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch filepath.Base(e.cfg.HeicConverter) {
	case HeifConvert, Magick:
		args = []string{in, out}
	case Sips:
		args = []string{"-s", "format", "png", in, "--out", out}
	case "":
		cleanup()
		return "", nil, fmt.Errorf("HEIC input needs a converter (%s, %s or %s)", HeifConvert, Magick, Sips)
	default:
		cleanup()
		return "", nil, fmt.Errorf("unknown HEIC converter %q", e.cfg.HeicConverter)
	}

	if _, errb, err := e.runner.Run(ctx, nil, e.cfg.HeicConverter, args...); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%s: %w: %s", e.cfg.HeicConverter, err, strings.TrimSpace(string(errb)))
	}
	if _, err := os.Stat(out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	e.logger.Debug("ocr.heic.converted", "input", in, "converter", e.cfg.HeicConverter)
	return out, cleanup, nil
}
