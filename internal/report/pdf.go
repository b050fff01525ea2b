package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PDFEngine names an external HTML to PDF converter.
type PDFEngine string

const (
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none"
)

// ErrNoOutputPath is returned when ExportPDF has nowhere to write.
var ErrNoOutputPath = errors.New("report: output path is required")

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// PDFConfig controls PDF export.
type PDFConfig struct {
	Engine     PDFEngine // empty means auto-detect
	PageSize   string
	Margin     string
	OutputPath string
}

// DefaultPDFConfig returns A4 with 12mm margins.
func DefaultPDFConfig(out string) PDFConfig {
	return PDFConfig{PageSize: "A4", Margin: "12mm", OutputPath: out}
}

// DetectPDFEngine returns the first converter found on PATH.
func DetectPDFEngine() PDFEngine {
	if _, err := exec.LookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	if chromiumPath() != "" {
		return EngineChromium
	}
	return EngineNone
}

// ExportPDF converts html into a PDF at cfg.OutputPath. Without a converter
// the HTML is written next to it with an .html extension, and the path
// actually written is returned.
func ExportPDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", ErrNoOutputPath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	engine := cfg.Engine
	if engine == "" {
		engine = DetectPDFEngine()
	}
	if engine == EngineNone {
		return writeHTMLFallback(html, cfg.OutputPath)
	}

	tmp, err := os.CreateTemp("", "newspulse-report-*.html")
	if err != nil {
		return "", fmt.Errorf("writing temp HTML: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp HTML: %w", err)
	}
	tmp.Close()

	out, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}

	var cmd *exec.Cmd
	switch engine {
	case EngineWKHTML:
		cmd = exec.CommandContext(ctx, "wkhtmltopdf",
			"--page-size", orDefault(cfg.PageSize, "A4"),
			"--margin-top", orDefault(cfg.Margin, "12mm"),
			"--margin-bottom", orDefault(cfg.Margin, "12mm"),
			"--encoding", "UTF-8",
			"--enable-local-file-access",
			"--quiet",
			tmp.Name(), out)
	case EngineChromium:
		bin := chromiumPath()
		if bin == "" {
			return "", fmt.Errorf("chromium not found in PATH")
		}
		cmd = exec.CommandContext(ctx, bin,
			"--headless", "--disable-gpu", "--no-sandbox",
			"--print-to-pdf="+out, "--print-to-pdf-no-header",
			"file://"+tmp.Name())
	default:
		return "", fmt.Errorf("unsupported PDF engine: %s", engine)
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s failed: %w\nOutput: %s", engine, err, output)
	}
	return out, nil
}

func chromiumPath() string {
	for _, name := range chromiumBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func writeHTMLFallback(html, out string) (string, error) {
	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing HTML fallback: %w", err)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
