// Package money carries proposal amounts as decimals. "AED X,XXX,XXX"
// strings exist only at the parse and format boundaries.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// VATRate is the UAE VAT applied to proposal subtotals.
var VATRate = decimal.RequireFromString("0.05")

// ParseAED parses a display rate such as "AED 1,250,000". The currency
// prefix and grouping commas are optional; anything else is an error.
func ParseAED(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "AED", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed amount %q", s)
	}
	return d, nil
}

// FormatAED renders an amount as "AED 1,316,196", rounded to whole dirhams.
func FormatAED(d decimal.Decimal) string {
	rounded := d.Round(0)
	s := rounded.StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	grouped := groupThousands(s)
	if neg {
		grouped = "-" + grouped
	}
	return "AED " + grouped
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
