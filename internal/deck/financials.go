package deck

import (
	"github.com/shopspring/decimal"

	"proposalbot/internal/money"
	"proposalbot/internal/registry"
)

// MunicipalityFee is the fixed per-image/message DM fee in dirhams.
var MunicipalityFee = decimal.NewFromInt(520)

// MunicipalityFeeText is the fixed municipality row value.
const MunicipalityFeeText = "AED 520 Per Image/Message"

// Financials are the computed amounts for one location's proposal, one
// VAT/total pair per duration option.
type Financials struct {
	Fee      decimal.Decimal
	FeeLabel string
	VATs     []decimal.Decimal
	Totals   []decimal.Decimal
}

// TotalTexts formats the totals for display and logging.
func (f Financials) TotalTexts() []string {
	out := make([]string, len(f.Totals))
	for i, t := range f.Totals {
		out[i] = money.FormatAED(t)
	}
	return out
}

func (f Financials) vatTexts() []string {
	out := make([]string, len(f.VATs))
	for i, v := range f.VATs {
		out[i] = money.FormatAED(v)
	}
	return out
}

// resolveFee picks the fee a location contributes: a static location with a
// production-fee override uses that, everything else uses its upload fee.
func resolveFee(loc *registry.Location, productionFee *decimal.Decimal) (decimal.Decimal, string) {
	if loc.Kind == registry.KindStatic && productionFee != nil {
		return *productionFee, "Production Fee:"
	}
	return decimal.NewFromInt(loc.UploadFee), "Upload Fee:"
}

// ComputeFinancials derives subtotal/VAT/total per net rate:
// subtotal = rate + fee + municipality, VAT = 5% of subtotal.
func ComputeFinancials(loc *registry.Location, netRates []decimal.Decimal, productionFee *decimal.Decimal) Financials {
	fee, label := resolveFee(loc, productionFee)
	f := Financials{Fee: fee, FeeLabel: label}
	for _, rate := range netRates {
		subtotal := rate.Add(fee).Add(MunicipalityFee)
		vat := subtotal.Mul(money.VATRate)
		f.VATs = append(f.VATs, vat)
		f.Totals = append(f.Totals, subtotal.Add(vat))
	}
	return f
}

// CombinedFinancials are the shared amounts of a combined package: the fees
// of all locations are pooled against one net rate.
type CombinedFinancials struct {
	Fees     []decimal.Decimal
	FeeLabel string
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeCombinedFinancials pools per-location fees and prices the batch as
// one subtotal. The fee label adapts to the mix of display kinds.
func ComputeCombinedFinancials(locs []*registry.Location, productionFees []*decimal.Decimal, combinedRate decimal.Decimal) CombinedFinancials {
	var hasStatic, hasDigital bool
	c := CombinedFinancials{}
	feeSum := decimal.Zero
	for i, loc := range locs {
		var override *decimal.Decimal
		if i < len(productionFees) {
			override = productionFees[i]
		}
		fee, _ := resolveFee(loc, override)
		c.Fees = append(c.Fees, fee)
		feeSum = feeSum.Add(fee)
		if loc.Kind == registry.KindStatic {
			hasStatic = true
		} else {
			hasDigital = true
		}
	}
	switch {
	case hasStatic && hasDigital:
		c.FeeLabel = "Upload/Production Fee:"
	case hasStatic:
		c.FeeLabel = "Production Fee:"
	default:
		c.FeeLabel = "Upload Fee:"
	}
	subtotal := combinedRate.Add(feeSum).Add(MunicipalityFee)
	c.VAT = subtotal.Mul(money.VATRate)
	c.Total = subtotal.Add(c.VAT)
	return c
}
