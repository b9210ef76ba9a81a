package packing

import (
	"math"
	"testing"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

func testMachine() sizing.Machine {
	return sizing.Machine{UsableWidthMM: 600, MaxLengthMM: 2500, MinDPI: 300}
}

func sizedItem(pos int, w, h float64) sizing.SizedItem {
	return sizing.SizedItem{
		ResolvedItem:  sizing.ResolvedItem{PicklistPosition: pos, SKU: "ITEM"},
		FinalWidthMM:  w,
		FinalHeightMM: h,
		ScaleApplied:  1,
	}
}

func TestPack_SingleSmallItem(t *testing.T) {
	items := []sizing.SizedItem{sizedItem(1, 100, 150)}
	result, err := Pack(items, testMachine(), ModeSequence)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(result.Bases) != 1 {
		t.Fatalf("len(Bases) = %d, want 1", len(result.Bases))
	}
	b := result.Bases[0]
	if len(b.Placements) != 1 {
		t.Fatalf("len(Placements) = %d, want 1", len(b.Placements))
	}
	p := b.Placements[0]
	if p.X != 20 || p.Y != 20 {
		t.Errorf("placement = (%v,%v), want (20,20)", p.X, p.Y)
	}
	if math.Abs(b.ContentLengthMM-170) > 1e-6 {
		t.Errorf("ContentLengthMM = %v, want 170", b.ContentLengthMM)
	}
}

func TestPack_ShelfBuster(t *testing.T) {
	var items []sizing.SizedItem
	for i := 1; i <= 10; i++ {
		items = append(items, sizedItem(i, 100, 70))
	}
	result, err := Pack(items, testMachine(), ModeSequence)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(result.Bases) != 1 {
		t.Fatalf("len(Bases) = %d, want 1", len(result.Bases))
	}
	b := result.Bases[0]
	if len(b.Placements) != 10 {
		t.Fatalf("len(Placements) = %d, want 10", len(b.Placements))
	}
	row1, row2 := 0, 0
	for _, p := range b.Placements {
		switch {
		case math.Abs(p.Y-20) < 1e-6:
			row1++
		case math.Abs(p.Y-100) < 1e-6:
			row2++
		default:
			t.Errorf("unexpected placement Y = %v", p.Y)
		}
	}
	if row1 != 5 || row2 != 5 {
		t.Errorf("row1=%d row2=%d, want 5 and 5", row1, row2)
	}
}

func TestPack_SkylineWin(t *testing.T) {
	var items []sizing.SizedItem
	for i := 1; i <= 4; i++ {
		items = append(items, sizedItem(i, 100, 70))
	}
	for i := 5; i <= 7; i++ {
		items = append(items, sizedItem(i, 100, 60))
	}
	result, err := Pack(items, testMachine(), ModeSequence)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(result.Bases) != 1 {
		t.Fatalf("len(Bases) = %d, want 1", len(result.Bases))
	}
	b := result.Bases[0]
	naiveShelfLength := 140.0
	if b.ContentLengthMM-20 >= naiveShelfLength {
		t.Errorf("ContentLengthMM-20 = %v, want < %v (skyline should nest the 60mm items)", b.ContentLengthMM-20, naiveShelfLength)
	}
}

func TestPack_OptimizeReorder(t *testing.T) {
	items := []sizing.SizedItem{
		sizedItem(1, 100, 200),
		sizedItem(2, 100, 100),
		sizedItem(3, 100, 50),
		sizedItem(4, 100, 50),
		sizedItem(5, 100, 100),
	}
	result, err := Pack(items, testMachine(), ModeOptimize)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if len(result.Bases) != 1 {
		t.Fatalf("len(Bases) = %d, want 1", len(result.Bases))
	}
	b := result.Bases[0]
	// The 200mm-tall item (largest area) must be placed first.
	first := b.Placements[0]
	if first.PicklistPosition != 1 {
		t.Errorf("first placement picklist_position = %d, want 1 (the 200mm item)", first.PicklistPosition)
	}
	if len(b.Placements) != 5 {
		t.Fatalf("len(Placements) = %d, want 5", len(b.Placements))
	}
}

func TestPack_Completeness(t *testing.T) {
	var items []sizing.SizedItem
	for i := 1; i <= 30; i++ {
		items = append(items, sizedItem(i, 100, 150))
	}
	result, err := Pack(items, testMachine(), ModeSequence)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	total := 0
	for _, b := range result.Bases {
		total += len(b.Placements)
	}
	if total != 30 {
		t.Errorf("total placements = %d, want 30", total)
	}
	for i, b := range result.Bases {
		if b.Index != i+1 {
			t.Errorf("base[%d].Index = %d, want %d", i, b.Index, i+1)
		}
	}
}

func TestPack_ModeSequenceOrderPreserved(t *testing.T) {
	items := []sizing.SizedItem{
		sizedItem(3, 100, 70),
		sizedItem(1, 100, 70),
		sizedItem(2, 100, 70),
	}
	result, err := Pack(items, testMachine(), ModeSequence)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	var positions []int
	for _, b := range result.Bases {
		for _, p := range b.Placements {
			positions = append(positions, p.PicklistPosition)
		}
	}
	want := []int{1, 2, 3}
	for i := range want {
		if positions[i] != want[i] {
			t.Errorf("positions = %v, want ascending %v", positions, want)
		}
	}
}

func TestPack_ItemExceedsBase(t *testing.T) {
	// Width exceeds the entire usable width budget; can never fit on any
	// base regardless of rollover.
	items := []sizing.SizedItem{sizedItem(1, 10000, 70)}
	_, err := Pack(items, testMachine(), ModeSequence)
	if !apperrors.Is(err, apperrors.CodeItemExceedsBase) {
		t.Errorf("expected CodeItemExceedsBase, got %v", err)
	}
}

func TestBase_Utilization(t *testing.T) {
	items := []sizing.SizedItem{sizedItem(1, 100, 150)}
	result, _ := Pack(items, testMachine(), ModeSequence)
	b := result.Bases[0]
	got := b.Utilization()
	want := (100.0 * 150.0) / (600.0 * 170.0)
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("Utilization() = %v, want %v", got, want)
	}
	if got > 1.0 {
		t.Errorf("Utilization() = %v, must be <= 1.0", got)
	}
}
