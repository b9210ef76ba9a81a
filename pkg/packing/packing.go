// Package packing places sized items onto fixed-width bases using the
// skyline's lowest-placement rule.
//
// Two strategies are exposed — Sequence and Optimize — but they share a
// single per-base inner loop; they differ only in the pre-pass that
// orders items before packing begins, modeled here as an Orderer
// function injected into Pack.
package packing

import (
	"sort"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/geometry"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
	"github.com/GianGoulart/printer-queue-generation/pkg/skyline"
)

// Mode selects the item pre-ordering strategy.
type Mode string

const (
	ModeSequence Mode = "sequence"
	ModeOptimize Mode = "optimize"
)

// Orderer returns a permutation of items to pack, in packing order.
// Sequence and Optimize are the two Orderers the core ships; a caller
// may supply its own for extension.
type Orderer func(items []sizing.SizedItem) []sizing.SizedItem

// Sequence orders items by ascending PicklistPosition — the strict
// picklist reading order.
func Sequence(items []sizing.SizedItem) []sizing.SizedItem {
	out := make([]sizing.SizedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PicklistPosition < out[j].PicklistPosition
	})
	return out
}

// Optimize orders items by descending area (FinalWidthMM *
// FinalHeightMM), ties broken by descending FinalHeightMM, then by
// ascending PicklistPosition for determinism. The original
// PicklistPosition is preserved on the item for audit even though
// packing order is reordered.
func Optimize(items []sizing.SizedItem) []sizing.SizedItem {
	out := make([]sizing.SizedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		areaI := out[i].FinalWidthMM * out[i].FinalHeightMM
		areaJ := out[j].FinalWidthMM * out[j].FinalHeightMM
		if !geometry.ApproxEqual(areaI, areaJ) {
			return areaI > areaJ
		}
		if !geometry.ApproxEqual(out[i].FinalHeightMM, out[j].FinalHeightMM) {
			return out[i].FinalHeightMM > out[j].FinalHeightMM
		}
		return out[i].PicklistPosition < out[j].PicklistPosition
	})
	return out
}

// OrdererFor resolves the built-in Orderer for a Mode.
func OrdererFor(mode Mode) Orderer {
	switch mode {
	case ModeOptimize:
		return Optimize
	default:
		return Sequence
	}
}

// Placement is one concrete item on one base, in absolute base
// coordinates.
type Placement struct {
	Item             sizing.SizedItem
	X, Y             float64
	Width, Height    float64
	ScaleApplied     float64
	PicklistPosition int
	Rotated          bool
}

// Base is one finalized (or in-progress) fixed-width print canvas.
type Base struct {
	Index           int
	WidthMM         float64
	ContentLengthMM float64
	Placements      []Placement
	Skyline         *skyline.Skyline
}

// Utilization returns the sum of placement areas divided by the base's
// occupied rectangle area: Σ item_area / (base_width · content_length).
func (b *Base) Utilization() float64 {
	if b.ContentLengthMM <= 0 {
		return 0
	}
	var sum float64
	for _, p := range b.Placements {
		sum += p.Width * p.Height
	}
	return sum / (b.WidthMM * b.ContentLengthMM)
}

// Result is the packing engine's output: an ordered list of finalized
// bases.
type Result struct {
	Mode  Mode
	Bases []*Base
}

// CollisionSnapshot is attached to an INTERNAL_COLLISION error: the
// full skyline state and placement set of the base on which the
// failsafe fired, for diagnosis.
type CollisionSnapshot struct {
	BaseIndex  int
	Segments   []skyline.Segment
	Placements []Placement
}

// CollisionError is the error type Pack returns when the anti-collision
// failsafe fires. It carries the underlying *apperrors.Error (code
// INTERNAL_COLLISION) alongside the CollisionSnapshot a caller needs to
// render a diagnostic, such as the "diagnose" CLI command's skyline SVG.
type CollisionError struct {
	Err      *apperrors.Error
	Snapshot CollisionSnapshot
}

func (e *CollisionError) Error() string { return e.Err.Error() }

// Unwrap exposes the wrapped *apperrors.Error so apperrors.Is and
// apperrors.GetCode see through to it.
func (e *CollisionError) Unwrap() error { return e.Err }

// Pack places items onto bases sized by machine.UsableWidthMM /
// machine.MaxLengthMM, using the built-in Orderer for mode.
//
// Base emission is strict: bases are finalized in order and, once
// finalized, their placement set is immutable; items are never
// backtracked onto an earlier base.
func Pack(items []sizing.SizedItem, machine sizing.Machine, mode Mode) (Result, error) {
	return PackWithOrderer(items, machine, mode, OrdererFor(mode))
}

// PackWithOrderer is Pack with an explicit ordering function, for
// callers extending the engine with a custom pre-ordering strategy
// (mode is still recorded on the Result for the manifest).
func PackWithOrderer(items []sizing.SizedItem, machine sizing.Machine, mode Mode, order Orderer) (Result, error) {
	ordered := order(items)

	var bases []*Base
	var current *Base

	newBase := func() *Base {
		b := &Base{
			Index:   len(bases) + 1,
			WidthMM: machine.UsableWidthMM,
			Skyline: skyline.New(machine.UsableWidthMM, machine.MaxLengthMM),
		}
		bases = append(bases, b)
		return b
	}

	// outcome distinguishes "no slot of this size exists" (ordinary,
	// expected to happen once per row/base) from "the skyline offered a
	// slot but the paranoid AABB check found it already occupied" (the
	// collision failsafe, never expected in correct operation).
	const (
		outcomePlaced = iota
		outcomeNoRoom
		outcomeCollision
	)

	placeOnBase := func(b *Base, item sizing.SizedItem) (Placement, int) {
		p, ok := b.Skyline.FindLowestPlacement(item.FinalWidthMM, item.FinalHeightMM)
		if !ok {
			return Placement{}, outcomeNoRoom
		}

		candidateRect := geometry.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}.Inflate(sizing.InterItemMarginMM / 2)
		for _, existing := range b.Placements {
			existingRect := geometry.Rect{X: existing.X, Y: existing.Y, Width: existing.Width, Height: existing.Height}.Inflate(sizing.InterItemMarginMM / 2)
			if candidateRect.Overlaps(existingRect) {
				return Placement{}, outcomeCollision
			}
		}

		b.Skyline.Commit(p)
		placement := Placement{
			Item:             item,
			X:                p.X,
			Y:                p.Y,
			Width:            p.Width,
			Height:           p.Height,
			ScaleApplied:     item.ScaleApplied,
			PicklistPosition: item.PicklistPosition,
		}
		b.Placements = append(b.Placements, placement)
		if p.Y+p.Height > b.ContentLengthMM {
			b.ContentLengthMM = p.Y + p.Height
		}
		return placement, outcomePlaced
	}

	for _, item := range ordered {
		if current == nil {
			current = newBase()
		}

		_, outcome := placeOnBase(current, item)
		if outcome == outcomePlaced {
			continue
		}

		// Either no room remains on the current base, or the collision
		// failsafe fired. Either way: finalize the current base and
		// retry exactly once on a fresh one.
		firstOutcome := outcome
		firstBase := current
		current = newBase()
		_, outcome = placeOnBase(current, item)
		if outcome == outcomePlaced {
			continue
		}

		if outcome == outcomeCollision || firstOutcome == outcomeCollision {
			failed := current
			if outcome != outcomeCollision {
				failed = firstBase
			}
			err := apperrors.New(apperrors.CodeInternalCollision, "item %s: collision failsafe fired on base %d and could not recover by rollover; skyline=%v", item.SKU, failed.Index, failed.Skyline.Segments())
			return Result{}, &CollisionError{
				Err: err,
				Snapshot: CollisionSnapshot{
					BaseIndex:  failed.Index,
					Segments:   failed.Skyline.Segments(),
					Placements: failed.Placements,
				},
			}
		}
		return Result{}, apperrors.New(apperrors.CodeItemExceedsBase, "item %s does not fit on an empty base (width=%.2fmm height=%.2fmm)", item.SKU, item.FinalWidthMM, item.FinalHeightMM)
	}

	return Result{Mode: mode, Bases: bases}, nil
}
