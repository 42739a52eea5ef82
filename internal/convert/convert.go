// Package convert turns rendered decks into PDFs. LibreOffice does the real
// conversion when it is installed; otherwise a built-in renderer produces a
// simplified text-only PDF so proposals still go out.
package convert

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"proposalbot/internal/metrics"
)

// Renderer converts one presentation file to a PDF in outDir and returns the
// path of the PDF it wrote.
type Renderer interface {
	Name() string
	Convert(ctx context.Context, pptxPath, outDir string) (string, error)
}

// NewRenderer probes for a LibreOffice binary and falls back to the built-in
// renderer when none is found. explicitPath, if set, is tried first.
func NewRenderer(explicitPath string, timeout time.Duration) Renderer {
	if path, ok := FindSoffice(explicitPath); ok {
		log.Printf("convert: using libreoffice at %s", path)
		return &SofficeRenderer{Path: path, Timeout: timeout}
	}
	log.Printf("convert: libreoffice not found, using built-in renderer")
	return &FallbackRenderer{}
}

// Service wraps a renderer with a bounded concurrency gate. The gate exists
// for the subprocess path; the built-in renderer shares it for simplicity.
// When the subprocess renderer fails or times out, the deck is rendered
// again with the built-in renderer so the proposal still goes out.
type Service struct {
	renderer Renderer
	fallback Renderer
	sem      *semaphore.Weighted
}

func NewService(r Renderer, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	s := &Service{renderer: r, sem: semaphore.NewWeighted(int64(concurrency))}
	if _, ok := r.(*FallbackRenderer); !ok {
		s.fallback = &FallbackRenderer{}
	}
	return s
}

// Convert blocks until a conversion slot is free, then renders the deck,
// retrying a failed primary conversion with the built-in renderer.
func (s *Service) Convert(ctx context.Context, pptxPath, outDir string) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)
	out, err := s.renderer.Convert(ctx, pptxPath, outDir)
	if err == nil {
		if s.fallback == nil {
			metrics.IncFallback()
		}
		return out, nil
	}
	if s.fallback == nil {
		return "", err
	}
	log.Printf("convert: %s failed for %s: %v; retrying with built-in renderer",
		s.renderer.Name(), filepath.Base(pptxPath), err)
	out, err = s.fallback.Convert(ctx, pptxPath, outDir)
	if err == nil {
		metrics.IncFallback()
	}
	return out, err
}

// RendererName identifies the active renderer for status reporting.
func (s *Service) RendererName() string { return s.renderer.Name() }

// UsingFallback reports whether conversions use the built-in renderer.
func (s *Service) UsingFallback() bool {
	_, ok := s.renderer.(*FallbackRenderer)
	return ok
}
