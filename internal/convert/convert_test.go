package convert

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// writeTestDeck assembles a minimal n-slide presentation with one text shape
// per slide.
func writeTestDeck(t *testing.T, dir, name string, n int) string {
	t.Helper()
	pptxPath := filepath.Join(dir, name)
	f, err := os.Create(pptxPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	add := func(part, data string) {
		w, err := zw.Create(part)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, data); err != nil {
			t.Fatal(err)
		}
	}

	var overrides, sldIDs, rels strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i+1)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i)
	}

	add("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+
		overrides.String()+`</Types>`)
	add("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`+
		`<p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst>`+
		`<p:sldSz cx="18288000" cy="10972800"/></p:presentation>`)
	add("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		rels.String()+`</Relationships>`)
	for i := 1; i <= n; i++ {
		add(fmt.Sprintf("ppt/slides/slide%d.xml", i), fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
			`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
			`<p:cSld><p:spTree>`+
			`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`+
			`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="914400" y="914400"/><a:ext cx="914400" cy="457200"/></a:xfrm></p:spPr>`+
			`<p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US" sz="2400"/><a:t>Slide %d</a:t></a:r></a:p></p:txBody>`+
			`</p:sp></p:spTree></p:cSld></p:sld>`, i))
	}

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return pptxPath
}

func TestFindSofficeExplicit(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "soffice")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok := FindSoffice(bin)
	if !ok || path != bin {
		t.Errorf("FindSoffice(%q) = %q, %v", bin, path, ok)
	}
}

func TestFindSofficeIgnoresMissingExplicit(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "nope", "soffice")
	if path, ok := FindSoffice(bogus); ok && path == bogus {
		t.Errorf("FindSoffice resolved nonexistent path %q", bogus)
	}
}

func TestFallbackRendererProducesPDF(t *testing.T) {
	dir := t.TempDir()
	pptx := writeTestDeck(t, dir, "deck.pptx", 3)

	r := &FallbackRenderer{}
	pdfPath, err := r.Convert(context.Background(), pptx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(pdfPath) != "deck.pdf" {
		t.Errorf("pdf path = %q", pdfPath)
	}
	n, err := PageCount(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("page count = %d, want 3", n)
	}
}

func TestConcatenate(t *testing.T) {
	dir := t.TempDir()
	r := &FallbackRenderer{}
	a, err := r.Convert(context.Background(), writeTestDeck(t, dir, "a.pptx", 3), dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Convert(context.Background(), writeTestDeck(t, dir, "b.pptx", 2), dir)
	if err != nil {
		t.Fatal(err)
	}

	merged := filepath.Join(dir, "merged.pdf")
	if err := Concatenate([]string{a, b}, merged); err != nil {
		t.Fatal(err)
	}
	if n, _ := PageCount(merged); n != 5 {
		t.Errorf("merged page count = %d, want 5", n)
	}

	if err := Concatenate(nil, merged); err == nil {
		t.Error("expected error for empty input list")
	}
}

type countingRenderer struct {
	active int64
	peak   int64
}

func (c *countingRenderer) Name() string { return "counting" }

func (c *countingRenderer) Convert(ctx context.Context, pptxPath, outDir string) (string, error) {
	n := atomic.AddInt64(&c.active, 1)
	for {
		peak := atomic.LoadInt64(&c.peak)
		if n <= peak || atomic.CompareAndSwapInt64(&c.peak, peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt64(&c.active, -1)
	return pptxPath, nil
}

func TestServiceBoundsConcurrency(t *testing.T) {
	r := &countingRenderer{}
	svc := NewService(r, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Convert(context.Background(), "x.pptx", ""); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if peak := atomic.LoadInt64(&r.peak); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

// failingRenderer stands in for a broken LibreOffice install.
type failingRenderer struct{}

func (failingRenderer) Name() string { return "libreoffice" }

func (failingRenderer) Convert(ctx context.Context, pptxPath, outDir string) (string, error) {
	return "", fmt.Errorf("convert %s: libreoffice: exit status 1", filepath.Base(pptxPath))
}

func TestServiceRetriesWithBuiltinRenderer(t *testing.T) {
	dir := t.TempDir()
	pptx := writeTestDeck(t, dir, "deck.pptx", 3)

	svc := NewService(failingRenderer{}, 1)
	pdfPath, err := svc.Convert(context.Background(), pptx, dir)
	if err != nil {
		t.Fatalf("retry did not recover: %v", err)
	}
	if n, _ := PageCount(pdfPath); n != 3 {
		t.Errorf("page count = %d, want 3", n)
	}

	// When the built-in renderer cannot read the file either, the error
	// surfaces.
	if _, err := svc.Convert(context.Background(), filepath.Join(dir, "missing.pptx"), dir); err == nil {
		t.Error("expected error when both renderers fail")
	}
}

func TestServiceUsingFallback(t *testing.T) {
	if !NewService(&FallbackRenderer{}, 1).UsingFallback() {
		t.Error("fallback renderer not reported")
	}
	if NewService(&SofficeRenderer{Path: "soffice"}, 1).UsingFallback() {
		t.Error("soffice renderer misreported as fallback")
	}
}
