package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// sofficeCandidates are tried in order when no explicit path is configured.
var sofficeCandidates = []string{
	"/opt/homebrew/bin/soffice",
	"soffice",
	"libreoffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/libreoffice",
	"/usr/local/bin/libreoffice",
}

// FindSoffice locates a usable LibreOffice binary. An explicit path wins if
// it exists; bare names are resolved through PATH.
func FindSoffice(explicit string) (string, bool) {
	candidates := sofficeCandidates
	if explicit != "" {
		candidates = append([]string{explicit}, candidates...)
	}
	for _, c := range candidates {
		if strings.ContainsRune(c, os.PathSeparator) {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c, true
			}
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			return path, true
		}
	}
	return "", false
}

// SofficeRenderer shells out to LibreOffice in headless mode.
type SofficeRenderer struct {
	Path    string
	Timeout time.Duration
}

func (r *SofficeRenderer) Name() string { return "libreoffice" }

func (r *SofficeRenderer) Convert(ctx context.Context, pptxPath, outDir string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Path, "--headless", "--convert-to", "pdf", "--outdir", outDir, pptxPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("convert %s: libreoffice timed out after %s", filepath.Base(pptxPath), timeout)
		}
		return "", fmt.Errorf("convert %s: libreoffice: %w: %s", filepath.Base(pptxPath), err, strings.TrimSpace(string(out)))
	}

	pdfPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(pptxPath), filepath.Ext(pptxPath))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("convert %s: libreoffice exited cleanly but %s is missing", filepath.Base(pptxPath), pdfPath)
	}
	return pdfPath, nil
}
