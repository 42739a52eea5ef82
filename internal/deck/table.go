package deck

// RowValue is the value side of a financial-table row: either one string
// spanning all value columns, or one string per duration/location option.
type RowValue struct {
	scalar    string
	perOption []string
}

func Scalar(s string) RowValue {
	return RowValue{scalar: s}
}

func PerOption(vals []string) RowValue {
	return RowValue{perOption: vals}
}

func (v RowValue) IsScalar() bool { return v.perOption == nil }

// Options returns the per-option values, or nil for a scalar.
func (v RowValue) Options() []string { return v.perOption }

func (v RowValue) String() string {
	if v.IsScalar() {
		return v.scalar
	}
	if len(v.perOption) > 0 {
		return v.perOption[0]
	}
	return ""
}

// Width is the number of value columns the row needs.
func (v RowValue) Width() int {
	if v.IsScalar() {
		return 1
	}
	return len(v.perOption)
}

// Cell colors, hex without '#'.
const (
	colorBlack = "000000"
	colorWhite = "FFFFFF"
	colorRed   = "FF0000"
	colorGray  = "808080"
	colorBlue  = "234EAD"
)

// rowStyle carries the per-row text treatment of the fixed table design.
type rowStyle struct {
	textColor string
	fillColor string
	bold      bool
	sizePt    int
}

func styleForLabel(label string) rowStyle {
	switch {
	case label == "Total:":
		return rowStyle{textColor: colorWhite, fillColor: colorGray, bold: true, sizePt: fontTotalPt}
	case label == "Net Rate:":
		return rowStyle{textColor: colorRed, fillColor: colorWhite, bold: true, sizePt: fontBodyPt}
	default:
		return rowStyle{textColor: colorBlack, fillColor: colorWhite, sizePt: fontBodyPt}
	}
}

// valueStyle adapts the row style for the value cells; fee amounts render
// in the corporate blue.
func valueStyle(label string) rowStyle {
	st := styleForLabel(label)
	if st.textColor == colorBlack && isFeeLabel(label) {
		st.textColor = colorBlue
	}
	return st
}

func isFeeLabel(label string) bool {
	switch label {
	case "Upload Fee:", "Production Fee:", "Upload/Production Fee:":
		return true
	}
	return false
}

// tableRow is one assembled row: a label cell plus its value. A styled
// location description replaces the plain value text, either as one merged
// cell (styled) or one per value column (styledOptions).
type tableRow struct {
	label         string
	value         RowValue
	styled        *StyledText
	styledOptions []StyledText
}
