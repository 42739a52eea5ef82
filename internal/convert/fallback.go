package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"proposalbot/internal/deck"
)

const (
	emuPerInch   = 914400
	pageWidthPx  = 1600
	lineHeightPx = 16
)

// FallbackRenderer rasterizes each slide's text onto a page image and binds
// the pages into a PDF. Output is a plain-text approximation of the deck;
// layout, imagery and styling are lost.
type FallbackRenderer struct{}

func (r *FallbackRenderer) Name() string { return "builtin" }

func (r *FallbackRenderer) Convert(ctx context.Context, pptxPath, outDir string) (string, error) {
	d, err := deck.Open(pptxPath)
	if err != nil {
		return "", err
	}
	cx, cy, err := d.SlideSize()
	if err != nil {
		return "", err
	}
	slides, err := d.ExtractText()
	if err != nil {
		return "", err
	}

	heightPx := int(int64(pageWidthPx) * cy / cx)
	widthPt := float64(cx) / emuPerInch * 72
	heightPt := float64(cy) / emuPerInch * 72

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: widthPt, Ht: heightPt},
	})
	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		img := renderSlideImage(slide, cx, cy, heightPx)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("convert %s: encode page %d: %w", filepath.Base(pptxPath), i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, widthPt, heightPt, false, opts, 0, "")
	}
	if len(slides) == 0 {
		pdf.AddPage()
	}

	pdfPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(pptxPath), filepath.Ext(pptxPath))+".pdf")
	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return "", fmt.Errorf("convert %s: write pdf: %w", filepath.Base(pptxPath), err)
	}
	return pdfPath, nil
}

// renderSlideImage draws each text box at its scaled slide position with a
// fixed bitmap face.
func renderSlideImage(slide deck.SlideText, cx, cy int64, heightPx int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pageWidthPx, heightPx))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for _, box := range slide.Boxes {
		x := int(box.X * pageWidthPx / cx)
		y := int(box.Y * int64(heightPx) / cy)
		for j, line := range box.Lines {
			drawer := &font.Drawer{
				Dst:  img,
				Src:  image.Black,
				Face: basicfont.Face7x13,
				Dot:  fixed.P(x+8, y+lineHeightPx+j*lineHeightPx),
			}
			drawer.DrawString(line)
		}
	}
	return img
}
