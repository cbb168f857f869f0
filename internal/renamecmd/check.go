package renamecmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/batch"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/config"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/rasterize"
)

type checker struct {
	out    io.Writer
	failed int
}

func (c *checker) pass(format string, args ...any) {
	fmt.Fprintf(c.out, "  ✓ %s\n", fmt.Sprintf(format, args...))
}

func (c *checker) fail(format string, args ...any) {
	c.failed++
	fmt.Fprintf(c.out, "  ❌ %s\n", fmt.Sprintf(format, args...))
}

// executeCheck verifies the environment for a run and, when sourceDir is set,
// preflights every PDF in it.
func executeCheck(cfg config.Config, sourceDir string, lookPath func(string) (string, error), out io.Writer) error {
	c := &checker{out: out}

	fmt.Fprintln(out, "Provider")
	provider := cfg.Inference.Provider
	if key := config.CredentialEnv(provider); key != "" {
		if os.Getenv(key) != "" {
			c.pass("%s credential found in %s", provider, key)
		} else {
			c.fail("%s environment variable not set", key)
		}
	} else if provider == "ollama" {
		c.pass("ollama needs no credential")
	} else {
		c.fail("unsupported provider: %s", provider)
	}

	fmt.Fprintln(out, "Rasterizer")
	switch cfg.Rasterize.Backend {
	case "mupdf":
		c.pass("mupdf is built in")
	case "poppler":
		binary := rasterize.NewPoppler(cfg.Rasterize.Pdftoppm, nil).Binary()
		if path, err := lookPath(binary); err == nil {
			c.pass("pdftoppm found at %s", path)
		} else {
			c.fail("%s not found on PATH (install poppler-utils)", binary)
		}
	default:
		c.fail("unsupported rasterizer: %s", cfg.Rasterize.Backend)
	}

	if sourceDir != "" {
		fmt.Fprintf(out, "Source %s\n", sourceDir)
		files, err := batch.Candidates(sourceDir)
		switch {
		case err != nil:
			c.fail("%v", err)
		case len(files) == 0:
			c.fail("no PDF files found")
		default:
			c.pass("%d PDF files", len(files))
		}
		for _, path := range files {
			name := filepath.Base(path)
			if err := rasterize.Validate(path); err != nil {
				c.fail("%s: %v", name, err)
				continue
			}
			pages, err := rasterize.PageCount(path)
			if err != nil {
				c.fail("%s: %v", name, err)
				continue
			}
			c.pass("%s (%d pages)", name, pages)
		}
	}

	if c.failed > 0 {
		return fmt.Errorf("%d checks failed", c.failed)
	}
	fmt.Fprintln(out, "\nAll checks passed")
	return nil
}

var defaultLookPath = exec.LookPath
