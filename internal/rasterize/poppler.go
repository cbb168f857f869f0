package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	r.logger.Debug("exec",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err)

	return out.Bytes(), errb.Bytes(), err
}

// Poppler renders pages with the pdftoppm binary
type Poppler struct {
	binary    string
	runner    Runner
	pageCount func(path string) (int, error)
	logger    *slog.Logger
}

// NewPoppler returns a backend running binary (pdftoppm when empty)
func NewPoppler(binary string, logger *slog.Logger) *Poppler {
	if binary == "" {
		binary = "pdftoppm"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poppler{binary: binary, runner: execRunner{logger: logger}, pageCount: PageCount, logger: logger}
}

// Binary returns the pdftoppm executable this backend runs
func (p *Poppler) Binary() string {
	return p.binary
}

func (p *Poppler) Rasterize(ctx context.Context, path string, opts Options) ([]Page, error) {
	last := opts.MaxPages
	if n, err := p.pageCount(path); err == nil {
		if n == 0 {
			return nil, fmt.Errorf("pdf has no pages")
		}
		last = pageLimit(n, opts.MaxPages)
	} else {
		// pdftoppm clamps -l itself; the preflight is only an optimization.
		p.logger.Debug("page count preflight failed", "path", path, "error", err)
	}

	tmpDir, err := os.MkdirTemp("", "pdf-renamer-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 200 -f 1 -l 2 -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(opts.DPI), "-f", "1"}
	if last > 0 {
		args = append(args, "-l", strconv.Itoa(last))
	}
	args = append(args, "-png", path, prefix)

	_, errb, err := p.runner.Run(ctx, p.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	// collect generated pngs (prefix-1.png or prefix-01.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortByPageNumber(matches)
	if last > 0 && len(matches) > last {
		matches = matches[:last]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([]Page, 0, len(matches))
	for i, file := range matches {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page: %w", err)
		}

		mimeType := "image/png"
		if opts.Format != "png" {
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("failed to decode rendered page #%d: %w", i+1, err)
			}
			if data, mimeType, err = Encode(img, opts); err != nil {
				return nil, fmt.Errorf("page #%d: %w", i+1, err)
			}
		}

		pages = append(pages, Page{Number: i + 1, MIMEType: mimeType, Data: data})
	}

	return pages, nil
}

func sortByPageNumber(files []string) {
	num := func(path string) int {
		base := strings.TrimSuffix(filepath.Base(path), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.Slice(files, func(i, j int) bool {
		return num(files[i]) < num(files[j])
	})
}
