package convert

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages in a PDF.
func PageCount(pdfPath string) (int, error) {
	n, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", pdfPath, err)
	}
	return n, nil
}

// Concatenate merges the given PDFs into outPath in order.
func Concatenate(pdfPaths []string, outPath string) error {
	if len(pdfPaths) == 0 {
		return fmt.Errorf("concatenate: no input files")
	}
	if err := api.MergeCreateFile(pdfPaths, outPath, false, nil); err != nil {
		return fmt.Errorf("concatenate into %s: %w", outPath, err)
	}
	return nil
}
