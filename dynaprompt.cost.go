package dynaprompt

import (
	"fmt"
	"math/big"
	"strings"
)

// Breakdown formats
const (
	FmtBreakdownBase      = "%s × %d credits = %d credits"
	FmtBreakdownSurcharge = " + %d credits (%s)"
	FmtBreakdownTotal     = " = %d credits total"
	FmtUnitImages         = "%d image"
	FmtUnitImagesPlural   = "%d images"
	FmtUnitBracket        = "%d bracket options"
	FmtUnitPipe           = "%d pipe steps"
	FmtUnitCombined       = "%s combined variations"
	SegmentCountSeparator = " × "
)

// Surcharge is an extra flat cost on top of the per-image credits, e.g.
// for a premium font.
type Surcharge struct {
	Label   string `json:"label" yaml:"label"`
	Credits int    `json:"credits" yaml:"credits"`
}

// CalculateCost returns count × creditsPerImage plus every surcharge. The
// result saturates at math.MaxInt.
func CalculateCost(count, creditsPerImage int, surcharges ...Surcharge) int {
	total := saturatingMul(count, creditsPerImage)
	for _, s := range surcharges {
		total = saturatingAdd(total, s.Credits)
	}
	return total
}

// exactCount is the image count without saturation. Combined counts are
// recomputed from the segment counts.
func exactCount(mode string, count int, segmentCounts []int) *big.Int {
	if mode != ModeNameCombined || len(segmentCounts) == 0 {
		return big.NewInt(int64(count))
	}
	n := big.NewInt(1)
	for _, c := range segmentCounts {
		n.Mul(n, big.NewInt(int64(c)))
	}
	return n
}

// costUnit describes how the image count of a plan was derived
func costUnit(mode string, count int, segmentCounts []int) string {
	switch mode {
	case ModeNameBracket:
		return fmt.Sprintf(FmtUnitBracket, count)
	case ModeNamePipe:
		return fmt.Sprintf(FmtUnitPipe, count)
	case ModeNameCombined:
		return fmt.Sprintf(FmtUnitCombined, formatSegmentCounts(segmentCounts))
	default:
		if count == 1 {
			return fmt.Sprintf(FmtUnitImages, count)
		}
		return fmt.Sprintf(FmtUnitImagesPlural, count)
	}
}

// describeCost renders e.g. "3 bracket options × 20 credits = 60 credits".
// Figures are exact even where CreditCost saturates.
func describeCost(mode string, count, creditsPerImage int, segmentCounts []int, surcharges []Surcharge) string {
	base := exactCount(mode, count, segmentCounts)
	base.Mul(base, big.NewInt(int64(creditsPerImage)))

	var sb strings.Builder
	fmt.Fprintf(&sb, FmtBreakdownBase, costUnit(mode, count, segmentCounts), creditsPerImage, base)
	if len(surcharges) == 0 {
		return sb.String()
	}
	total := new(big.Int).Set(base)
	for _, s := range surcharges {
		fmt.Fprintf(&sb, FmtBreakdownSurcharge, s.Credits, s.Label)
		total.Add(total, big.NewInt(int64(s.Credits)))
	}
	fmt.Fprintf(&sb, FmtBreakdownTotal, total)
	return sb.String()
}

// formatSegmentCounts renders "4 × 4"
func formatSegmentCounts(counts []int) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, SegmentCountSeparator)
}
