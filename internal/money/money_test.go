package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAED(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"AED 1,250,000", 1250000},
		{"1250000", 1250000},
		{"  AED 3,000 ", 3000},
		{"520", 520},
	}
	for _, c := range cases {
		d, err := ParseAED(c.in)
		if err != nil {
			t.Fatalf("ParseAED(%q): %v", c.in, err)
		}
		if !d.Equal(decimal.NewFromInt(c.want)) {
			t.Fatalf("ParseAED(%q) = %s, want %d", c.in, d, c.want)
		}
	}
}

func TestParseAEDMalformed(t *testing.T) {
	for _, in := range []string{"", "AED", "two million", "AED 1,2x0"} {
		if _, err := ParseAED(in); err == nil {
			t.Fatalf("ParseAED(%q) should fail", in)
		}
	}
}

func TestVATRoundTrip(t *testing.T) {
	net, err := ParseAED("AED 1,250,000")
	if err != nil {
		t.Fatal(err)
	}
	subtotal := net.Add(decimal.NewFromInt(3000)).Add(decimal.NewFromInt(520))
	if got := FormatAED(subtotal); got != "AED 1,253,520" {
		t.Fatalf("subtotal = %s", got)
	}
	vat := subtotal.Mul(VATRate)
	if got := FormatAED(vat); got != "AED 62,676" {
		t.Fatalf("vat = %s", got)
	}
	total := subtotal.Add(vat)
	if got := FormatAED(total); got != "AED 1,316,196" {
		t.Fatalf("total = %s", got)
	}
}

func TestFormatGrouping(t *testing.T) {
	cases := map[int64]string{
		0:       "AED 0",
		999:     "AED 999",
		1000:    "AED 1,000",
		3000:    "AED 3,000",
		1316196: "AED 1,316,196",
	}
	for n, want := range cases {
		if got := FormatAED(decimal.NewFromInt(n)); got != want {
			t.Fatalf("FormatAED(%d) = %s, want %s", n, got, want)
		}
	}
}
