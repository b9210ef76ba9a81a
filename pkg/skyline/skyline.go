// Package skyline implements the packing engine's central data
// structure: the upper envelope of everything placed on a base so far,
// discretized along the usable X-range into contiguous segments.
//
// # Representation
//
// A Skyline is an ordered, contiguous partition of
// [SideMarginMM, usableWidthMM-SideMarginMM] into Segments, each
// carrying an XStart, a Width, and a YTop — the lowest Y at which a new
// item may be placed with its left edge at XStart. Segments are kept
// contiguous and sorted by XStart at all times; adjacent segments with
// equal YTop are merged after every commit.
//
// # Find-Lowest-Placement
//
// FindLowestPlacement scans every X at which a contiguous run of
// segments totals at least the candidate width, computes the
// placement Y for each as the max YTop over the covered segments, and
// returns the run minimizing Y, breaking ties toward the smaller X.
//
// # Commit
//
// Commit splits the segments straddling the left and right edges of
// the placed rectangle, replaces the covered interior with a single new
// segment recording the post-placement YTop, and merges the result with
// any now-adjacent segment sharing the same YTop. The committed
// segment's YTop reflects the real item height plus the fixed
// inter-item margin only — never a phantom-inflated value.
//
// # Numeric Policy
//
// All coordinates are float64 millimeters; overlap and fit comparisons
// use geometry.Tolerance (1e-6mm).
package skyline

import (
	"sort"

	"github.com/GianGoulart/printer-queue-generation/pkg/geometry"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// Segment is one contiguous run of the skyline: the interval
// [XStart, XStart+Width) sits at height YTop.
type Segment struct {
	XStart float64
	Width  float64
	YTop   float64
}

// Skyline is the packing engine's per-base occupancy state.
type Skyline struct {
	usableWidthMM float64
	maxLengthMM   float64
	segments      []Segment
}

// New creates a Skyline for a base with the given usable width and
// maximum length, initialized to a single segment spanning the usable
// range at SideMarginMM, per the core's Reset operation.
func New(usableWidthMM, maxLengthMM float64) *Skyline {
	s := &Skyline{usableWidthMM: usableWidthMM, maxLengthMM: maxLengthMM}
	s.Reset()
	return s
}

// Reset reinitializes the skyline to a single segment, as when starting
// a fresh base.
func (s *Skyline) Reset() {
	s.segments = []Segment{{
		XStart: sizing.SideMarginMM,
		Width:  s.usableWidthMM - 2*sizing.SideMarginMM,
		YTop:   sizing.SideMarginMM,
	}}
}

// Segments returns a copy of the current segment chain, ordered by
// XStart. Callers must not mutate the Skyline through the returned
// slice.
func (s *Skyline) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// FromSegments reconstructs a read-only Skyline from a previously
// captured segment chain, such as a packing.CollisionSnapshot. The
// result supports DOT/SVG diagnostics but must not be committed to:
// its usableWidthMM/maxLengthMM are unknown and left zero.
func FromSegments(segments []Segment) *Skyline {
	s := &Skyline{}
	s.segments = make([]Segment, len(segments))
	copy(s.segments, segments)
	return s
}

// Placement is a candidate or committed position for an item of a given
// width and height.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// FindLowestPlacement searches for the lowest-Y position at which a
// rectangle of size (width, height) fits within the usable width and
// below maxLengthMM (leaving room for SideMarginMM below it). It
// returns ok=false if no such position exists.
func (s *Skyline) FindLowestPlacement(width, height float64) (Placement, bool) {
	var best Placement
	found := false

	for i := range s.segments {
		xStart := s.segments[i].XStart
		runWidth := 0.0
		runMaxY := s.segments[i].YTop
		for j := i; j < len(s.segments); j++ {
			runWidth += s.segments[j].Width
			if s.segments[j].YTop > runMaxY {
				runMaxY = s.segments[j].YTop
			}
			if geometry.GreaterOrEqual(runWidth, width) {
				y := runMaxY
				if y+height+sizing.SideMarginMM > s.maxLengthMM+geometry.Tolerance {
					break
				}
				if !found || y < best.Y-geometry.Tolerance || (geometry.ApproxEqual(y, best.Y) && xStart < best.X) {
					best = Placement{X: xStart, Y: y, Width: width, Height: height}
					found = true
				}
				break
			}
		}
	}

	return best, found
}

// Commit inserts p into the skyline: the interior of [p.X, p.X+p.Width)
// is replaced by a single segment at YTop = p.Y + p.Height +
// InterItemMarginMM, with the boundary segments split as needed and the
// result re-merged where adjacent YTops coincide.
func (s *Skyline) Commit(p Placement) {
	newYTop := p.Y + p.Height + sizing.InterItemMarginMM
	left := p.X
	right := p.X + p.Width

	var out []Segment
	for _, seg := range s.segments {
		segRight := seg.XStart + seg.Width

		if segRight <= left+geometry.Tolerance || seg.XStart >= right-geometry.Tolerance {
			out = append(out, seg)
			continue
		}

		// seg overlaps [left, right): emit the untouched left remainder,
		// skip the covered middle (handled once, below), emit the
		// untouched right remainder.
		if seg.XStart < left-geometry.Tolerance {
			out = append(out, Segment{XStart: seg.XStart, Width: left - seg.XStart, YTop: seg.YTop})
		}
		if segRight > right+geometry.Tolerance {
			out = append(out, Segment{XStart: right, Width: segRight - right, YTop: seg.YTop})
		}
	}

	out = append(out, Segment{XStart: left, Width: right - left, YTop: newYTop})
	sort.Slice(out, func(i, j int) bool { return out[i].XStart < out[j].XStart })

	s.segments = mergeAdjacent(out)
}

// mergeAdjacent collapses consecutive segments that share a YTop within
// tolerance into a single wider segment.
func mergeAdjacent(segs []Segment) []Segment {
	if len(segs) == 0 {
		return segs
	}
	merged := []Segment{segs[0]}
	for _, seg := range segs[1:] {
		last := &merged[len(merged)-1]
		if geometry.ApproxEqual(last.XStart+last.Width, seg.XStart) && geometry.ApproxEqual(last.YTop, seg.YTop) {
			last.Width += seg.Width
			continue
		}
		merged = append(merged, seg)
	}
	return merged
}

// MaxYTop returns the highest YTop across all segments — the lowest
// free Y on the base. Once an item is committed this is the content
// length plus the trailing InterItemMarginMM.
func (s *Skyline) MaxYTop() float64 {
	max := 0.0
	for _, seg := range s.segments {
		if seg.YTop > max {
			max = seg.YTop
		}
	}
	return max
}
