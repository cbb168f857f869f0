package rasterize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// MuPDF renders pages in-process through go-fitz
type MuPDF struct {
	logger *slog.Logger
}

func NewMuPDF(logger *slog.Logger) *MuPDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &MuPDF{logger: logger}
}

func (m *MuPDF) Rasterize(ctx context.Context, path string, opts Options) ([]Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	limit := pageLimit(total, opts.MaxPages)

	pages := make([]Page, 0, limit)
	for n := 0; n < limit; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(n, float64(opts.DPI))
		if err != nil {
			return nil, fmt.Errorf("failed to convert page #%d to image: %w", n+1, err)
		}

		data, mimeType, err := Encode(img, opts)
		if err != nil {
			return nil, fmt.Errorf("page #%d: %w", n+1, err)
		}

		m.logger.Debug("pdf.page", "path", path, "page", n+1, "bytes", len(data))
		pages = append(pages, Page{Number: n + 1, MIMEType: mimeType, Data: data})
	}

	return pages, nil
}
