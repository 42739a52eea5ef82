package deck

import (
	"fmt"
	"time"
)

// disclaimerText renders the legal/operational notes block. The validity
// line is generation time plus 30 days with an ordinal day suffix.
func disclaimerText(now time.Time) string {
	validUntil := now.AddDate(0, 0, 30)
	dateStr := fmt.Sprintf("%d%s of %s, %d",
		validUntil.Day(), ordinalSuffix(validUntil.Day()), validUntil.Month().String(), validUntil.Year())

	return "• A DM fee of AED 520 per image/message applies. The final fee will be confirmed after the final artwork is received.\n" +
		"• An official booking order is required to secure the location/spot.\n" +
		"• Once a booking is confirmed, cancellations are not allowed even in case an artwork is rejected by the authorities, the client will be required to submit a revised artwork.\n" +
		"• All artworks are subject to approval by BackLite Media and DM.\n" +
		"• Location availability is subject to change.\n" +
		"• The artwork must comply with DM's guidelines.\n" +
		fmt.Sprintf("• This proposal is valid until the %s.", dateStr)
}

func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	default:
		return "th"
	}
}
