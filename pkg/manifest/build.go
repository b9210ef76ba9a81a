package manifest

import (
	"sort"

	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// Build composes a Manifest from the outputs of the sizing and packing
// stages plus the artifact URIs written by the renderer. Sizing
// warnings are sorted by PicklistPosition, matching the core's ordering
// guarantee.
func Build(jobID, tenantID string, sizedItemCount int, sizingErrors []error, sizedItems []sizing.SizedItem, packResult packing.Result, artifactURIs []string, processingSeconds float64) Manifest {
	var warnings []SizingWarning
	scaledItems := 0
	for _, item := range sizedItems {
		for _, w := range item.Warnings {
			warnings = append(warnings, SizingWarning{
				Code:             string(w.Code),
				ItemID:           w.ItemID,
				PicklistPosition: w.PicklistPosition,
				Message:          w.Message,
				Detail:           w.Detail,
			})
		}
		if len(item.Warnings) > 0 {
			scaledItems++
		}
	}
	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].PicklistPosition < warnings[j].PicklistPosition
	})

	bases := make([]Base, 0, len(packResult.Bases))
	var totalLength float64
	var utilizationSum float64
	for _, b := range packResult.Bases {
		placements := make([]Placement, 0, len(b.Placements))
		for _, p := range b.Placements {
			placements = append(placements, Placement{
				ItemID:           p.Item.ItemID,
				SKU:              p.Item.SKU,
				PicklistPosition: p.PicklistPosition,
				XMM:              p.X,
				YMM:              p.Y,
				WidthMM:          p.Width,
				HeightMM:         p.Height,
				ScaleApplied:     p.ScaleApplied,
				Rotated:          p.Rotated,
			})
		}
		util := b.Utilization()
		utilizationSum += util
		// LengthMM is the same ContentLengthMM Utilization() divides by,
		// so utilization recomputed from the manifest (areaSum /
		// (WidthMM * LengthMM)) always round-trips against b.Utilization.
		// The rendered artifact's physical length adds SideMarginMM on
		// top of this (see baserender.BuildSVG).
		totalLength += b.ContentLengthMM
		bases = append(bases, Base{
			Index:       b.Index,
			WidthMM:     b.WidthMM,
			LengthMM:    b.ContentLengthMM,
			Utilization: util,
			ItemsCount:  len(b.Placements),
			Placements:  placements,
		})
	}

	avgUtilization := 0.0
	if len(bases) > 0 {
		avgUtilization = utilizationSum / float64(len(bases))
	}

	errMessages := make([]string, 0, len(sizingErrors))
	for _, e := range sizingErrors {
		errMessages = append(errMessages, e.Error())
	}

	return Manifest{
		JobID:                 jobID,
		TenantID:              tenantID,
		Mode:                  string(packResult.Mode),
		ProcessingTimeSeconds: processingSeconds,
		Sizing: SizingSummary{
			TotalItems:   sizedItemCount,
			ValidItems:   len(sizedItems),
			InvalidItems: len(sizingErrors),
			ScaledItems:  scaledItems,
			Warnings:     warnings,
		},
		Packing: PackingSummary{
			Mode:           string(packResult.Mode),
			TotalBases:     len(bases),
			TotalLengthMM:  totalLength,
			AvgUtilization: avgUtilization,
			Bases:          bases,
		},
		Outputs: Outputs{Artifacts: artifactURIs},
		Errors:  errMessages,
	}
}
