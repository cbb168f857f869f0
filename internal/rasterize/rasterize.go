package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page is one encoded page image, numbered from 1
type Page struct {
	Number   int
	MIMEType string
	Data     []byte
}

// Options controls a single rasterization
type Options struct {
	MaxPages    int
	DPI         int
	Format      string // "jpeg" or "png"
	JPEGQuality int
}

// Rasterizer turns the first pages of a PDF into images.
// Failures are deterministic and are not retried by callers.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, opts Options) ([]Page, error)
}

// New returns the backend named by backend ("mupdf" or "poppler")
func New(backend, pdftoppm string, logger *slog.Logger) (Rasterizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch backend {
	case "", "mupdf":
		return NewMuPDF(logger), nil
	case "poppler":
		return NewPoppler(pdftoppm, logger), nil
	default:
		return nil, fmt.Errorf("unsupported rasterizer: %s", backend)
	}
}

// Encode converts img to the requested format
func Encode(img image.Image, opts Options) ([]byte, string, error) {
	var buf bytes.Buffer
	switch opts.Format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	case "", "jpeg", "jpg":
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format: %s", opts.Format)
	}
}

var disableConfigDir sync.Once

// pdfcpu would otherwise create a config directory under the user's home.
func quietPDFCPU() {
	disableConfigDir.Do(api.DisableConfigDir)
}

// PageCount reads the page count without rendering
func PageCount(path string) (int, error) {
	quietPDFCPU()
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return n, nil
}

// Validate checks that the file parses as a PDF
func Validate(path string) error {
	quietPDFCPU()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}

func pageLimit(total, max int) int {
	if max <= 0 || total < max {
		return total
	}
	return max
}
