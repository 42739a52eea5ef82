package deck

import (
	"strconv"
	"strings"
)

// TextBox is one positioned text shape pulled from a slide, used by the
// degraded fallback renderer.
type TextBox struct {
	X, Y   int64
	FontPt float64
	Lines  []string
}

// SlideText is the extractable text of one slide in presentation order.
type SlideText struct {
	Boxes []TextBox
}

// ExtractText walks every slide and collects its text shapes with a
// best-effort position and font size. Shapes without text are skipped.
func (d *Deck) ExtractText() ([]SlideText, error) {
	parts, err := d.SlideParts()
	if err != nil {
		return nil, err
	}
	var slides []SlideText
	for _, partName := range parts {
		doc, err := d.part(partName)
		if err != nil {
			return nil, err
		}
		var st SlideText
		for _, sp := range doc.FindElements("//sp") {
			box := TextBox{FontPt: 12}
			if off := sp.FindElement("spPr/xfrm/off"); off != nil {
				box.X, _ = strconv.ParseInt(off.SelectAttrValue("x", "0"), 10, 64)
				box.Y, _ = strconv.ParseInt(off.SelectAttrValue("y", "0"), 10, 64)
			}
			txBody := sp.FindElement("txBody")
			if txBody == nil {
				continue
			}
			for _, p := range txBody.SelectElements("p") {
				var line strings.Builder
				for _, r := range p.SelectElements("r") {
					if rPr := r.FindElement("rPr"); rPr != nil {
						if sz := rPr.SelectAttrValue("sz", ""); sz != "" {
							if n, err := strconv.Atoi(sz); err == nil && box.FontPt == 12 {
								box.FontPt = float64(n) / 100
							}
						}
					}
					if t := r.FindElement("t"); t != nil {
						line.WriteString(t.Text())
					}
				}
				if text := strings.TrimSpace(line.String()); text != "" {
					box.Lines = append(box.Lines, text)
				}
			}
			if len(box.Lines) > 0 {
				st.Boxes = append(st.Boxes, box)
			}
		}
		for _, gf := range doc.FindElements("//graphicFrame") {
			box := TextBox{FontPt: 12}
			if off := gf.FindElement("xfrm/off"); off != nil {
				box.X, _ = strconv.ParseInt(off.SelectAttrValue("x", "0"), 10, 64)
				box.Y, _ = strconv.ParseInt(off.SelectAttrValue("y", "0"), 10, 64)
			}
			for _, tr := range gf.FindElements(".//tr") {
				var cells []string
				for _, tc := range tr.SelectElements("tc") {
					var cell strings.Builder
					for _, t := range tc.FindElements(".//t") {
						cell.WriteString(t.Text())
					}
					if text := strings.TrimSpace(cell.String()); text != "" {
						cells = append(cells, text)
					}
				}
				if len(cells) > 0 {
					box.Lines = append(box.Lines, strings.Join(cells, "  |  "))
				}
			}
			if len(box.Lines) > 0 {
				st.Boxes = append(st.Boxes, box)
			}
		}
		slides = append(slides, st)
	}
	return slides, nil
}
