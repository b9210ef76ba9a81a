package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/GianGoulart/printer-queue-generation/pkg/cache"
	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

type fakeResolver struct {
	profiles []sizing.SizingProfile
	calls    int
}

func (f *fakeResolver) ProfileSet(tenantID string) ([]sizing.SizingProfile, error) {
	f.calls++
	return f.profiles, nil
}

type fakeArtwork struct{}

func (fakeArtwork) Fetch(handle string) ([]byte, string, error) {
	return []byte{0x89, 0x50, 0x4e, 0x47}, "image/png", nil
}

func requireRsvgConvert(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		t.Skip("rsvg-convert not installed; skipping render-dependent test")
	}
}

func testMachine() sizing.Machine {
	return sizing.Machine{UsableWidthMM: 600, MaxLengthMM: 2500, MinDPI: 300}
}

func testProfiles() []sizing.SizingProfile {
	return []sizing.SizingProfile{{SKUPrefix: "", TargetWidthMM: 100, IsDefault: true}}
}

func mmToPx(mm float64) int {
	return int(mm / 25.4 * 300)
}

func testItem(id string, pos int, widthPx, heightPx int) sizing.ResolvedItem {
	return sizing.ResolvedItem{
		ItemID:           id,
		SKU:              fmt.Sprintf("SKU-%s", id),
		PicklistPosition: pos,
		ArtworkWidthPx:   widthPx,
		ArtworkHeightPx:  heightPx,
		ArtworkDPI:       300,
		ArtworkFormat:    "PNG",
		ArtworkHandle:    "handle-" + id,
	}
}

func TestDriver_Run_SingleSmallItem(t *testing.T) {
	requireRsvgConvert(t)

	store, err := manifest.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	resolver := &fakeResolver{profiles: testProfiles()}
	driver := NewDriver(resolver, cache.NewNullCache(), store, fakeArtwork{}, nil, nil)

	// 100x150mm at 300dpi: px = mm/25.4*dpi
	item := testItem("1", 1, mmToPx(100.0), mmToPx(150.0))

	result, err := driver.Run(context.Background(), Options{
		JobID:        "job-1",
		TenantID:     "tenant-1",
		Machine:      testMachine(),
		Items:        []sizing.ResolvedItem{item},
		Mode:         packing.ModeSequence,
		Reproducible: true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Manifest.Packing.Bases) != 1 {
		t.Fatalf("len(Bases) = %d, want 1", len(result.Manifest.Packing.Bases))
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("len(Artifacts) = %d, want 1", len(result.Artifacts))
	}

	saved, hit, err := store.Get(context.Background(), "job-1")
	if err != nil || !hit {
		t.Fatalf("Get() hit=%v err=%v, want a saved manifest", hit, err)
	}
	if saved.JobID != "job-1" {
		t.Errorf("saved manifest JobID = %q, want job-1", saved.JobID)
	}
}

func TestDriver_Run_InvalidDPIFailsJobWithNoArtifacts(t *testing.T) {
	store, err := manifest.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	resolver := &fakeResolver{profiles: testProfiles()}
	driver := NewDriver(resolver, cache.NewNullCache(), store, fakeArtwork{}, nil, nil)

	item := testItem("1", 1, 1000, 1500)
	item.ArtworkDPI = 150 // below the machine's min_dpi of 300

	_, err = driver.Run(context.Background(), Options{
		JobID:    "job-2",
		TenantID: "tenant-1",
		Machine:  testMachine(),
		Items:    []sizing.ResolvedItem{item},
	})
	if err == nil {
		t.Fatal("expected an error for an item below minimum DPI")
	}
	if apperrors.GetCode(err) != apperrors.CodeLowDPI {
		t.Errorf("error code = %v, want %v", apperrors.GetCode(err), apperrors.CodeLowDPI)
	}

	if _, hit, _ := store.Get(context.Background(), "job-2"); hit {
		t.Error("no manifest should be saved for a failed job")
	}
}

func TestDriver_Run_CachesProfileSetAcrossJobs(t *testing.T) {
	requireRsvgConvert(t)

	store, err := manifest.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	resolver := &fakeResolver{profiles: testProfiles()}
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	driver := NewDriver(resolver, fileCache, store, fakeArtwork{}, nil, nil)

	item := testItem("1", 1, mmToPx(100.0), mmToPx(150.0))
	opts := Options{
		JobID:    "job-a",
		TenantID: "tenant-1",
		Machine:  testMachine(),
		Items:    []sizing.ResolvedItem{item},
	}

	if _, err := driver.Run(context.Background(), opts); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	opts.JobID = "job-b"
	if _, err := driver.Run(context.Background(), opts); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if resolver.calls != 1 {
		t.Errorf("resolver.calls = %d, want 1 (second job should hit the cache)", resolver.calls)
	}
}

func TestDriver_Run_SoftDeadlineAlreadyExpired(t *testing.T) {
	store, err := manifest.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	resolver := &fakeResolver{profiles: testProfiles()}
	driver := NewDriver(resolver, cache.NewNullCache(), store, fakeArtwork{}, nil, nil)

	item := testItem("1", 1, mmToPx(100.0), mmToPx(150.0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err = driver.Run(ctx, Options{
		JobID:    "job-3",
		TenantID: "tenant-1",
		Machine:  testMachine(),
		Items:    []sizing.ResolvedItem{item},
	})
	if err == nil {
		t.Fatal("expected a timeout error for an already-expired context")
	}
	if apperrors.GetCode(err) != apperrors.CodeTimeout {
		t.Errorf("error code = %v, want %v", apperrors.GetCode(err), apperrors.CodeTimeout)
	}
}
