package deck

// The financial table was designed against a 20in x 12in canvas. Layout
// scales every measurement from those reference inches to the actual slide
// size; the min of the two axis scales drives font and row sizing so the
// table never overflows a narrower axis.
type Layout struct {
	ScaleX float64
	ScaleY float64
	Scale  float64
}

// Reference design measurements, in inches on the 20x12 canvas.
const (
	refCanvasW   = 20.0
	refCanvasH   = 12.0
	refLeft      = 0.75
	refTop       = 0.5
	refTableW    = 18.5
	refCol1W     = 4.0
	refRowH      = 0.9
	refNotesTop  = 9.5
	refNotesH    = 2.0
	tableRows    = 9
	borderWidthE = 25400
)

// Base font sizes in points, before scaling.
const (
	fontTitlePt = 36
	fontTotalPt = 28
	fontBodyPt  = 20
	fontNotesPt = 11
)

func NewLayout(slideCx, slideCy int64) Layout {
	sx := float64(slideCx) / (refCanvasW * emuPerInch)
	sy := float64(slideCy) / (refCanvasH * emuPerInch)
	s := sx
	if sy < sx {
		s = sy
	}
	return Layout{ScaleX: sx, ScaleY: sy, Scale: s}
}

// X converts reference inches to EMU along the horizontal axis.
func (l Layout) X(inches float64) int64 {
	return int64(inches * emuPerInch * l.ScaleX)
}

// Y converts reference inches to EMU along the vertical axis.
func (l Layout) Y(inches float64) int64 {
	return int64(inches * emuPerInch * l.ScaleY)
}

// FontSize converts a base point size to DrawingML hundredths of a point.
func (l Layout) FontSize(basePt int) int {
	return int(float64(basePt)*l.Scale) * 100
}

// RowHeight is the scaled height of one table row in EMU.
func (l Layout) RowHeight() int64 {
	return l.Y(refRowH)
}

// TableGeometry resolves the table frame and column widths for a column
// count: the label column keeps its design width and the value columns
// split the remainder evenly.
type TableGeometry struct {
	Left, Top     int64
	Width, Height int64
	ColWidths     []int64
}

func (l Layout) Table(cols int) TableGeometry {
	g := TableGeometry{
		Left:   l.X(refLeft),
		Top:    l.Y(refTop),
		Width:  l.X(refTableW),
		Height: l.RowHeight() * tableRows,
	}
	col1 := l.X(refCol1W)
	g.ColWidths = make([]int64, cols)
	g.ColWidths[0] = col1
	if cols > 1 {
		valueW := (g.Width - col1) / int64(cols-1)
		for i := 1; i < cols; i++ {
			g.ColWidths[i] = valueW
		}
	}
	return g
}

// NotesBox is the frame of the disclaimer text box beneath the table.
func (l Layout) NotesBox() (left, top, width, height int64) {
	return l.X(refLeft), l.Y(refNotesTop), l.X(refTableW), l.Y(refNotesH)
}
