// Package sizing projects raw artwork into target print dimensions
// under per-machine constraints: usable width, minimum DPI, aspect
// preservation, and a scale-to-fit fallback when the aspect-preserving
// target width would overflow the usable margin width.
//
// Margin constants are fixed and not configurable at runtime:
// SideMarginMM governs every base's left and right inset (and,
// symmetrically, the top and bottom of its usable length),
// InterItemMarginMM is the vertical gap the skyline bakes in between
// stacked rows.
package sizing

import (
	"strings"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
)

// SideMarginMM is the fixed inset, in millimeters, reserved on every
// edge of a base's usable rectangle.
const SideMarginMM = 20.0

// InterItemMarginMM is the fixed vertical gap, in millimeters, the
// skyline commits between a placed item and whatever is stacked above
// it.
const InterItemMarginMM = 10.0

// mmPerInch converts pixels-at-DPI into millimeters: 25.4mm per inch.
const mmPerInch = 25.4

// SupportedFormats is the exhaustive set of artwork formats the core
// accepts. Anything else fails with UNSUPPORTED_FORMAT.
var SupportedFormats = map[string]bool{
	"PNG":  true,
	"JPEG": true,
}

// Machine describes the immutable per-job print constraints.
type Machine struct {
	UsableWidthMM float64
	MaxLengthMM   float64
	MinDPI        int
}

// UsableMarginWidthMM is the usable width with both side margins
// subtracted — the true horizontal budget available to placed artwork.
func (m Machine) UsableMarginWidthMM() float64 {
	return m.UsableWidthMM - 2*SideMarginMM
}

// SizingProfile maps a normalized SKU prefix to a target print width.
// At most one profile per tenant should have IsDefault set; the sizing
// engine does not itself enforce that invariant, it is a property of
// the collaborator-supplied ProfileSet.
type SizingProfile struct {
	SKUPrefix     string
	TargetWidthMM float64
	IsDefault     bool
}

// ResolvedItem is the input to the sizing engine: an item with known
// artwork dimensions, DPI, and format, as resolved by the upstream
// picklist parser and SKU-to-asset resolver (both out of scope for
// this core).
type ResolvedItem struct {
	ItemID           string
	SKU              string
	PicklistPosition int
	ArtworkWidthPx   int
	ArtworkHeightPx  int
	ArtworkDPI       int
	ArtworkFormat    string
	ArtworkHandle    string
}

// WarningCode identifies the kind of non-fatal condition recorded
// against a sized item.
type WarningCode string

// ScaledDownToFitWidth is emitted when the width-fit fallback had to
// shrink an item below its aspect-preserving target width.
const ScaledDownToFitWidth WarningCode = "SCALED_DOWN_TO_FIT_WIDTH"

// Warning is a structured, machine-parseable per-item warning. Detail
// carries the numeric payload (e.g. the scale-down percentage) instead
// of interpolating it into Message, so the manifest's warning list
// stays queryable.
type Warning struct {
	Code             WarningCode
	ItemID           string
	PicklistPosition int
	Message          string
	Detail           float64
}

// SizedItem is the sizing engine's output: a ResolvedItem annotated
// with final millimeter dimensions and the scale actually applied.
type SizedItem struct {
	ResolvedItem
	FinalWidthMM  float64
	FinalHeightMM float64
	ScaleApplied  float64
	Warnings      []Warning
}

// normalizeSKU lowercases sku and strips '-', '_', and spaces, matching
// the normalization rule used for both item SKUs and profile prefixes.
func normalizeSKU(sku string) string {
	sku = strings.ToLower(sku)
	sku = strings.ReplaceAll(sku, "-", "")
	sku = strings.ReplaceAll(sku, "_", "")
	sku = strings.ReplaceAll(sku, " ", "")
	return sku
}

// selectProfile picks the profile for item's SKU: the longest
// normalized prefix that leads the normalized SKU, falling back to the
// tenant default. Returns an error carrying CodeNoProfile if neither
// exists.
func selectProfile(sku string, profiles []SizingProfile) (SizingProfile, error) {
	normalized := normalizeSKU(sku)

	best := -1
	bestLen := -1
	var defaultIdx = -1
	for i, p := range profiles {
		if p.IsDefault {
			defaultIdx = i
		}
		prefix := normalizeSKU(p.SKUPrefix)
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(normalized, prefix) && len(prefix) > bestLen {
			best = i
			bestLen = len(prefix)
		}
	}
	if best >= 0 {
		return profiles[best], nil
	}
	if defaultIdx >= 0 {
		return profiles[defaultIdx], nil
	}
	return SizingProfile{}, apperrors.New(apperrors.CodeNoProfile, "no sizing profile matches sku %q and no tenant default is set", sku)
}

// Size applies the sizing engine to a single ResolvedItem against a
// Machine and a tenant's ProfileSet, per the core's four-stage
// procedure: profile selection, raw projection, target scaling, and the
// width-fit fallback, plus format validation.
//
// Errors are per-item: the caller (the pipeline driver) decides whether
// any single item failure fails the whole job. There is no
// skip-invalid-and-continue mode inside this function.
func Size(item ResolvedItem, machine Machine, profiles []SizingProfile) (SizedItem, error) {
	if !SupportedFormats[strings.ToUpper(item.ArtworkFormat)] {
		return SizedItem{}, apperrors.New(apperrors.CodeUnsupportedFormat, "item %s: unsupported artwork format %q", item.SKU, item.ArtworkFormat)
	}

	if item.ArtworkDPI < machine.MinDPI {
		return SizedItem{}, apperrors.New(apperrors.CodeLowDPI, "item %s: artwork dpi %d below machine minimum %d", item.SKU, item.ArtworkDPI, machine.MinDPI)
	}

	profile, err := selectProfile(item.SKU, profiles)
	if err != nil {
		return SizedItem{}, err
	}

	rawWidthMM := float64(item.ArtworkWidthPx) * mmPerInch / float64(item.ArtworkDPI)
	rawHeightMM := float64(item.ArtworkHeightPx) * mmPerInch / float64(item.ArtworkDPI)

	k := profile.TargetWidthMM / rawWidthMM
	finalWidthMM := profile.TargetWidthMM
	finalHeightMM := rawHeightMM * k
	scaleApplied := k

	var warnings []Warning

	usableMarginWidthMM := machine.UsableMarginWidthMM()
	if finalWidthMM > usableMarginWidthMM+1e-9 {
		kPrime := usableMarginWidthMM / finalWidthMM
		finalWidthMM *= kPrime
		finalHeightMM *= kPrime
		scaleApplied = k * kPrime

		pct := (1 - kPrime) * 100
		warnings = append(warnings, Warning{
			Code:             ScaledDownToFitWidth,
			ItemID:           item.ItemID,
			PicklistPosition: item.PicklistPosition,
			Message:          "scaled down to fit usable width",
			Detail:           pct,
		})
	}

	if finalHeightMM+2*SideMarginMM > machine.MaxLengthMM+1e-9 {
		return SizedItem{}, apperrors.New(apperrors.CodeItemExceedsMaxLength, "item %s: sized height %.4fmm exceeds max base length %.4fmm", item.SKU, finalHeightMM, machine.MaxLengthMM)
	}

	return SizedItem{
		ResolvedItem:  item,
		FinalWidthMM:  finalWidthMM,
		FinalHeightMM: finalHeightMM,
		ScaleApplied:  scaleApplied,
		Warnings:      warnings,
	}, nil
}

// SizeAll sizes every item in items against machine and profiles,
// collecting every per-item error instead of stopping at the first. The
// pipeline driver aggregates the returned errors into a single job
// failure; it never attempts to continue with the valid subset, per the
// core's "no skip-invalid-and-continue" invariant.
func SizeAll(items []ResolvedItem, machine Machine, profiles []SizingProfile) ([]SizedItem, []error) {
	sized := make([]SizedItem, 0, len(items))
	var errs []error
	for _, item := range items {
		s, err := Size(item, machine, profiles)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sized = append(sized, s)
	}
	return sized, errs
}
