package deck

import (
	"fmt"
	"strings"

	"proposalbot/internal/registry"
)

// StyledText is a location description with the spots/SOV span marked for
// distinct coloring: Prefix renders black, Highlight red, Suffix black.
type StyledText struct {
	Prefix    string
	Highlight string
	Suffix    string
}

func (s StyledText) String() string {
	return s.Prefix + s.Highlight + s.Suffix
}

// LocationDescription builds the human-readable location line:
//
//	Series: Name - Size (Hm x Wm) - N faces - [spots - seconds - SOV] - loop
//
// For digital locations the highlighted span covers spots through effective
// SOV; for static locations only the spot count is highlighted.
func LocationDescription(loc *registry.Location, spots int) StyledText {
	var parts []string
	if loc.Series != "" {
		parts = append(parts, fmt.Sprintf("%s: %s", loc.Series, loc.DisplayName))
	} else {
		parts = append(parts, loc.DisplayName)
	}

	if loc.Height != "" && loc.Width != "" {
		if loc.HasMultipleSizes() {
			parts = append(parts, registry.MultipleSizes)
		} else {
			h := strings.TrimSpace(strings.TrimSuffix(loc.Height, "m"))
			w := strings.TrimSpace(strings.TrimSuffix(loc.Width, "m"))
			parts = append(parts, fmt.Sprintf("Size (%sm x %sm)", h, w))
		}
	}

	parts = append(parts, fmt.Sprintf("%d faces", loc.Faces))
	prefix := strings.Join(parts, " - ") + " - "

	spotsText := fmt.Sprintf("%d %s", spots, pluralSpots(spots))
	if loc.Kind == registry.KindStatic {
		return StyledText{Prefix: prefix, Highlight: spotsText}
	}

	totalSeconds := loc.SpotDuration * spots
	effectiveSOV := loc.BaseSOV * float64(spots)
	highlight := fmt.Sprintf("%s - %d Seconds - %.1f%% SOV", spotsText, totalSeconds, effectiveSOV)
	suffix := fmt.Sprintf(" - %d seconds loop", loc.LoopDuration)
	return StyledText{Prefix: prefix, Highlight: highlight, Suffix: suffix}
}

func pluralSpots(n int) string {
	if n == 1 {
		return "spot"
	}
	return "spots"
}
