package deck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsDrawing   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelations = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPresent   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	uriTable    = "http://schemas.openxmlformats.org/drawingml/2006/table"
)

// cellRun is one styled run inside a table cell paragraph.
type cellRun struct {
	text  string
	color string
	bold  bool
	// sizePt is the unscaled base size; scaling happens at emit time.
	sizePt int
}

// buildFinancialSlideXML assembles a complete slide part: the 9-row table
// frame plus the disclaimer text box.
func buildFinancialSlideXML(l Layout, rows []tableRow, cols int, notes string) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	sld := doc.CreateElement("p:sld")
	sld.CreateAttr("xmlns:a", nsDrawing)
	sld.CreateAttr("xmlns:r", nsRelations)
	sld.CreateAttr("xmlns:p", nsPresent)

	cSld := sld.CreateElement("p:cSld")
	spTree := cSld.CreateElement("p:spTree")

	nvGrp := spTree.CreateElement("p:nvGrpSpPr")
	cNvPr := nvGrp.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	nvGrp.CreateElement("p:cNvGrpSpPr")
	nvGrp.CreateElement("p:nvPr")
	grpSpPr := spTree.CreateElement("p:grpSpPr")
	xfrm := grpSpPr.CreateElement("a:xfrm")
	for _, tag := range []string{"a:off", "a:chOff"} {
		off := xfrm.CreateElement(tag)
		off.CreateAttr("x", "0")
		off.CreateAttr("y", "0")
	}
	for _, tag := range []string{"a:ext", "a:chExt"} {
		ext := xfrm.CreateElement(tag)
		ext.CreateAttr("cx", "0")
		ext.CreateAttr("cy", "0")
	}

	spTree.AddChild(tableFrame(l, rows, cols))
	spTree.AddChild(notesShape(l, notes))

	return docString(doc)
}

func docString(doc *etree.Document) (string, error) {
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("serialize slide: %w", err)
	}
	return s, nil
}

// tableFrame emits the graphicFrame holding the financial table.
func tableFrame(l Layout, rows []tableRow, cols int) *etree.Element {
	geom := l.Table(cols)

	frame := etree.NewElement("p:graphicFrame")
	nv := frame.CreateElement("p:nvGraphicFramePr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "2")
	cNvPr.CreateAttr("name", "Financial Table")
	nv.CreateElement("p:cNvGraphicFramePr")
	nv.CreateElement("p:nvPr")

	xfrm := frame.CreateElement("p:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(geom.Left, 10))
	off.CreateAttr("y", strconv.FormatInt(geom.Top, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(geom.Width, 10))
	ext.CreateAttr("cy", strconv.FormatInt(geom.Height, 10))

	graphic := frame.CreateElement("a:graphic")
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", uriTable)

	tbl := data.CreateElement("a:tbl")
	tbl.CreateElement("a:tblPr")
	grid := tbl.CreateElement("a:tblGrid")
	for _, w := range geom.ColWidths {
		col := grid.CreateElement("a:gridCol")
		col.CreateAttr("w", strconv.FormatInt(w, 10))
	}

	for i, row := range rows {
		tbl.AddChild(tableRowEl(l, row, i == 0, cols))
	}
	return frame
}

// tableRowEl lays out one row: the merged header, or a label cell plus
// scalar (merged) or per-option value cells.
func tableRowEl(l Layout, row tableRow, isHeader bool, cols int) *etree.Element {
	tr := etree.NewElement("a:tr")
	tr.CreateAttr("h", strconv.FormatInt(l.RowHeight(), 10))

	if isHeader {
		runs := []cellRun{{text: row.label, color: colorWhite, bold: true, sizePt: fontTitlePt}}
		tr.AddChild(cellEl(l, runs, "", cols, false))
		for i := 1; i < cols; i++ {
			tr.AddChild(mergedCellEl())
		}
		return tr
	}

	labelStyle := styleForLabel(row.label)
	labelRuns := []cellRun{{text: row.label, color: labelStyle.textColor, bold: labelStyle.bold, sizePt: labelStyle.sizePt}}
	tr.AddChild(cellEl(l, labelRuns, labelStyle.fillColor, 1, false))

	valStyle := valueStyle(row.label)
	if row.value.IsScalar() {
		var runs []cellRun
		if row.styled != nil {
			runs = styledRuns(*row.styled, valStyle)
		} else {
			runs = []cellRun{{text: row.value.String(), color: valStyle.textColor, bold: valStyle.bold, sizePt: valStyle.sizePt}}
		}
		tr.AddChild(cellEl(l, runs, valStyle.fillColor, cols-1, false))
		for i := 2; i < cols; i++ {
			tr.AddChild(mergedCellEl())
		}
		return tr
	}

	if row.styledOptions != nil {
		for i := 0; i < cols-1; i++ {
			var runs []cellRun
			if i < len(row.styledOptions) {
				runs = styledRuns(row.styledOptions[i], valStyle)
			}
			tr.AddChild(cellEl(l, runs, valStyle.fillColor, 1, false))
		}
		return tr
	}

	opts := row.value.Options()
	for i := 0; i < cols-1; i++ {
		text := ""
		if i < len(opts) {
			text = opts[i]
		}
		runs := []cellRun{{text: text, color: valStyle.textColor, bold: valStyle.bold, sizePt: valStyle.sizePt}}
		tr.AddChild(cellEl(l, runs, valStyle.fillColor, 1, false))
	}
	return tr
}

// styledRuns splits a StyledText into black/red/black runs.
func styledRuns(st StyledText, base rowStyle) []cellRun {
	var runs []cellRun
	if st.Prefix != "" {
		runs = append(runs, cellRun{text: st.Prefix, color: colorBlack, sizePt: base.sizePt})
	}
	runs = append(runs, cellRun{text: st.Highlight, color: colorRed, sizePt: base.sizePt})
	if st.Suffix != "" {
		runs = append(runs, cellRun{text: st.Suffix, color: colorBlack, sizePt: base.sizePt})
	}
	return runs
}

// cellEl emits one table cell: bordered, filled (or background-transparent
// for the header), a small spacer paragraph then the centered content.
func cellEl(l Layout, runs []cellRun, fillColor string, gridSpan int, _ bool) *etree.Element {
	tc := etree.NewElement("a:tc")
	if gridSpan > 1 {
		tc.CreateAttr("gridSpan", strconv.Itoa(gridSpan))
	}

	txBody := tc.CreateElement("a:txBody")
	txBody.CreateElement("a:bodyPr")
	txBody.CreateElement("a:lstStyle")

	spacer := txBody.CreateElement("a:p")
	spacerRun := spacer.CreateElement("a:r")
	spacerPr := spacerRun.CreateElement("a:rPr")
	spacerPr.CreateAttr("lang", "en-US")
	spacerPr.CreateAttr("sz", "800")
	spacerRun.CreateElement("a:t").SetText(" ")

	p := txBody.CreateElement("a:p")
	pPr := p.CreateElement("a:pPr")
	pPr.CreateAttr("algn", "ctr")
	for _, run := range runs {
		r := p.CreateElement("a:r")
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "en-US")
		rPr.CreateAttr("sz", strconv.Itoa(l.FontSize(run.sizePt)))
		if run.bold {
			rPr.CreateAttr("b", "1")
		}
		fill := rPr.CreateElement("a:solidFill")
		fill.CreateElement("a:srgbClr").CreateAttr("val", run.color)
		r.CreateElement("a:t").SetText(run.text)
	}

	tcPr := tc.CreateElement("a:tcPr")
	tcPr.CreateAttr("anchor", "ctr")
	for _, edge := range []string{"a:lnL", "a:lnR", "a:lnT", "a:lnB"} {
		tcPr.AddChild(borderEl(edge))
	}
	if fillColor == "" {
		tcPr.CreateElement("a:noFill")
	} else {
		fill := tcPr.CreateElement("a:solidFill")
		fill.CreateElement("a:srgbClr").CreateAttr("val", fillColor)
	}
	return tc
}

// mergedCellEl is a horizontally merged continuation cell.
func mergedCellEl() *etree.Element {
	tc := etree.NewElement("a:tc")
	tc.CreateAttr("hMerge", "1")
	txBody := tc.CreateElement("a:txBody")
	txBody.CreateElement("a:bodyPr")
	txBody.CreateElement("a:lstStyle")
	txBody.CreateElement("a:p")
	tc.CreateElement("a:tcPr")
	return tc
}

// borderEl is a solid black single line on one cell edge.
func borderEl(tag string) *etree.Element {
	ln := etree.NewElement(tag)
	ln.CreateAttr("w", strconv.Itoa(borderWidthE))
	ln.CreateAttr("cap", "flat")
	ln.CreateAttr("cmpd", "sng")
	ln.CreateAttr("algn", "ctr")
	fill := ln.CreateElement("a:solidFill")
	fill.CreateElement("a:srgbClr").CreateAttr("val", colorBlack)
	ln.CreateElement("a:prstDash").CreateAttr("val", "solid")
	ln.CreateElement("a:headEnd").CreateAttr("type", "none")
	ln.CreateElement("a:tailEnd").CreateAttr("type", "none")
	ln.CreateElement("a:round")
	return ln
}

// notesShape is the disclaimer text box beneath the table, one paragraph
// per bullet line with 120% line spacing.
func notesShape(l Layout, notes string) *etree.Element {
	left, top, width, height := l.NotesBox()

	sp := etree.NewElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "3")
	cNvPr.CreateAttr("name", "Notes")
	nv.CreateElement("p:cNvSpPr").CreateAttr("txBox", "1")
	nv.CreateElement("p:nvPr")

	spPr := sp.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(left, 10))
	off.CreateAttr("y", strconv.FormatInt(top, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(width, 10))
	ext.CreateAttr("cy", strconv.FormatInt(height, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	txBody := sp.CreateElement("p:txBody")
	bodyPr := txBody.CreateElement("a:bodyPr")
	bodyPr.CreateAttr("wrap", "square")
	bodyPr.CreateAttr("lIns", "0")
	bodyPr.CreateAttr("rIns", "0")
	bodyPr.CreateAttr("tIns", "45720")
	bodyPr.CreateAttr("bIns", "0")
	txBody.CreateElement("a:lstStyle")

	for _, line := range strings.Split(notes, "\n") {
		p := txBody.CreateElement("a:p")
		pPr := p.CreateElement("a:pPr")
		pPr.CreateElement("a:lnSpc").CreateElement("a:spcPct").CreateAttr("val", "120000")
		r := p.CreateElement("a:r")
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "en-US")
		rPr.CreateAttr("sz", strconv.Itoa(l.FontSize(fontNotesPt)))
		fill := rPr.CreateElement("a:solidFill")
		fill.CreateElement("a:srgbClr").CreateAttr("val", colorBlack)
		r.CreateElement("a:t").SetText(line)
	}
	return sp
}
