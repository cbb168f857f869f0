package renamecmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/config"
)

func TestExecuteCheck(t *testing.T) {
	found := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	missing := func(name string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name     string
		provider string
		backend  string
		lookPath func(string) (string, error)
		env      map[string]string
		wantErr  bool
		want     string
	}{
		{"ollama with mupdf", "ollama", "mupdf", missing, nil, false, "All checks passed"},
		{"gemini with key", "gemini", "mupdf", missing, map[string]string{"GEMINI_API_KEY": "k"}, false, "GEMINI_API_KEY"},
		{"gemini without key", "gemini", "mupdf", missing, nil, true, "GEMINI_API_KEY environment variable not set"},
		{"poppler found", "ollama", "poppler", found, nil, false, "/usr/bin/pdftoppm"},
		{"poppler missing", "ollama", "poppler", missing, nil, true, "not found on PATH"},
		{"unknown provider", "claude", "mupdf", missing, nil, true, "unsupported provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := config.Default()
			cfg.Inference.Provider = tt.provider
			cfg.Rasterize.Backend = tt.backend

			var out bytes.Buffer
			err := executeCheck(cfg, "", tt.lookPath, &out)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%t, got %v", tt.wantErr, err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected %q in output:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestExecuteCheckDefaultPdftoppm(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Inference.Provider = "ollama"
	cfg.Rasterize.Backend = "poppler"
	cfg.Rasterize.Pdftoppm = ""

	var looked string
	lookPath := func(name string) (string, error) {
		looked = name
		return "/usr/bin/" + name, nil
	}

	var out bytes.Buffer
	if err := executeCheck(cfg, "", lookPath, &out); err != nil {
		t.Fatalf("executeCheck failed: %v", err)
	}
	if looked != "pdftoppm" {
		t.Errorf("Expected lookup of pdftoppm, got %q", looked)
	}
}

func TestExecuteCheckSourceDir(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Inference.Provider = "ollama"

	dir := t.TempDir()
	var out bytes.Buffer
	if err := executeCheck(cfg, dir, exec404, &out); err == nil {
		t.Error("Expected error for a directory without PDFs")
	}

	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	out.Reset()
	if err := executeCheck(cfg, dir, exec404, &out); err == nil {
		t.Error("Expected error for an invalid PDF")
	}
	if !strings.Contains(out.String(), "1 PDF files") || !strings.Contains(out.String(), "broken.pdf") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func exec404(string) (string, error) {
	return "", errors.New("not found")
}

func TestCheckCmdDefaults(t *testing.T) {
	defaults := config.Default()
	cmd := NewCheckCmd()

	for flag, want := range map[string]string{
		"provider":   defaults.Inference.Provider,
		"rasterizer": defaults.Rasterize.Backend,
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Fatalf("Expected --%s flag", flag)
		}
		if f.DefValue != want {
			t.Errorf("Expected --%s default %q, got %q", flag, want, f.DefValue)
		}
	}
}
