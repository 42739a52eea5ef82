package deck

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proposalbot/internal/money"
	"proposalbot/internal/registry"
)

// Terms are the financial inputs for one location's proposal slide.
// Durations and NetRates are parallel; rates arrive already parsed.
type Terms struct {
	Location      *registry.Location
	StartDate     string
	Durations     []string
	NetRates      []decimal.Decimal
	Spots         int
	ProductionFee *decimal.Decimal
}

// RenderFinancialSlide injects a financial slide into a copy of the
// template, placing it immediately before the closing slide, and returns
// the path of the new deck plus the computed amounts.
func RenderFinancialSlide(templatePath string, terms Terms, outDir string, now time.Time) (string, Financials, error) {
	d, err := Open(templatePath)
	if err != nil {
		return "", Financials{}, err
	}
	cx, cy, err := d.SlideSize()
	if err != nil {
		return "", Financials{}, err
	}
	l := NewLayout(cx, cy)

	spots := terms.Spots
	if spots < 1 {
		spots = 1
	}
	fin := ComputeFinancials(terms.Location, terms.NetRates, terms.ProductionFee)

	rateTexts := make([]string, len(terms.NetRates))
	for i, r := range terms.NetRates {
		rateTexts[i] = money.FormatAED(r)
	}

	desc := LocationDescription(terms.Location, spots)
	rows := []tableRow{
		{label: "Financial Proposal"},
		{label: "Location:", styled: &desc},
		{label: "Start Date:", value: Scalar(terms.StartDate)},
		{label: "Duration:", value: optionValue(terms.Durations)},
		{label: "Net Rate:", value: optionValue(rateTexts)},
		{label: fin.FeeLabel, value: Scalar(money.FormatAED(fin.Fee))},
		{label: "Municipality Fee:", value: Scalar(MunicipalityFeeText)},
		{label: "VAT 5% :", value: optionValue(fin.vatTexts())},
		{label: "Total:", value: optionValue(fin.TotalTexts())},
	}

	cols := 1 + maxWidth(rows)
	slideXML, err := buildFinancialSlideXML(l, rows, cols, disclaimerText(now))
	if err != nil {
		return "", Financials{}, err
	}
	if err := d.InsertSlideSecondToLast(slideXML); err != nil {
		return "", Financials{}, err
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("proposal-%s.pptx", uuid.NewString()))
	if err := d.Save(outPath); err != nil {
		return "", Financials{}, err
	}
	return outPath, fin, nil
}

// CombinedTerms are the inputs for a combined-package slide: parallel
// per-location slices and one shared net rate.
type CombinedTerms struct {
	Locations      []*registry.Location
	StartDates     []string
	Durations      []string
	Spots          []int
	ProductionFees []*decimal.Decimal
	CombinedRate   decimal.Decimal
}

// RenderCombinedSlide lays the shared slide out with one column per
// location and a single pooled rate/VAT/total.
func RenderCombinedSlide(templatePath string, terms CombinedTerms, outDir string, now time.Time) (string, CombinedFinancials, error) {
	d, err := Open(templatePath)
	if err != nil {
		return "", CombinedFinancials{}, err
	}
	cx, cy, err := d.SlideSize()
	if err != nil {
		return "", CombinedFinancials{}, err
	}
	l := NewLayout(cx, cy)

	fin := ComputeCombinedFinancials(terms.Locations, terms.ProductionFees, terms.CombinedRate)

	descs := make([]StyledText, len(terms.Locations))
	feeTexts := make([]string, len(fin.Fees))
	for i, loc := range terms.Locations {
		spots := 1
		if i < len(terms.Spots) && terms.Spots[i] > 0 {
			spots = terms.Spots[i]
		}
		descs[i] = LocationDescription(loc, spots)
		feeTexts[i] = money.FormatAED(fin.Fees[i])
	}

	rows := []tableRow{
		{label: "Financial Proposal"},
		{label: "Location:", styledOptions: descs, value: PerOption(styledStrings(descs))},
		{label: "Start Date:", value: PerOption(terms.StartDates)},
		{label: "Duration:", value: PerOption(terms.Durations)},
		{label: "Net Rate:", value: Scalar(money.FormatAED(terms.CombinedRate))},
		{label: fin.FeeLabel, value: PerOption(feeTexts)},
		{label: "Municipality Fee:", value: Scalar(MunicipalityFeeText)},
		{label: "VAT 5% :", value: Scalar(money.FormatAED(fin.VAT))},
		{label: "Total:", value: Scalar(money.FormatAED(fin.Total))},
	}

	cols := 1 + len(terms.Locations)
	slideXML, err := buildFinancialSlideXML(l, rows, cols, disclaimerText(now))
	if err != nil {
		return "", CombinedFinancials{}, err
	}
	if err := d.InsertSlideSecondToLast(slideXML); err != nil {
		return "", CombinedFinancials{}, err
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("combined-%s.pptx", uuid.NewString()))
	if err := d.Save(outPath); err != nil {
		return "", CombinedFinancials{}, err
	}
	return outPath, fin, nil
}

func optionValue(vals []string) RowValue {
	if len(vals) == 1 {
		return Scalar(vals[0])
	}
	return PerOption(vals)
}

func styledStrings(sts []StyledText) []string {
	out := make([]string, len(sts))
	for i, s := range sts {
		out[i] = s.String()
	}
	return out
}

func maxWidth(rows []tableRow) int {
	max := 1
	for _, r := range rows {
		if w := r.value.Width(); w > max {
			max = w
		}
	}
	return max
}
