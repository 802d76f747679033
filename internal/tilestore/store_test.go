package tilestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"trickplay/internal/tiles"
	"trickplay/internal/tilestore"
)

func openTestStore(t *testing.T) *tilestore.Store {
	t.Helper()
	store, err := tilestore.OpenPath(filepath.Join(t.TempDir(), "manifests.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleManifest(width int) *tiles.Manifest {
	return &tiles.Manifest{
		Width:          width,
		Height:         width * 9 / 16,
		TileWidth:      10,
		TileHeight:     10,
		ThumbnailCount: 42,
		SheetCount:     1,
		Interval:       2000,
		Quality:        85,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "item-a", "/dest/320", sampleManifest(320)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	record, err := store.Get(ctx, "item-a", 320)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record == nil {
		t.Fatal("expected record, got nil")
	}
	if record.Manifest.ThumbnailCount != 42 || record.Manifest.Interval != 2000 {
		t.Fatalf("manifest mismatch: %+v", record.Manifest)
	}
	if record.DestDir != "/dest/320" {
		t.Fatalf("dest dir = %q", record.DestDir)
	}

	missing, err := store.Get(ctx, "item-a", 640)
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing width")
	}
}

func TestSaveUpsertsOnConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "item-a", "/old", sampleManifest(320)); err != nil {
		t.Fatal(err)
	}
	updated := sampleManifest(320)
	updated.ThumbnailCount = 99
	if err := store.Save(ctx, "item-a", "/new", updated); err != nil {
		t.Fatal(err)
	}

	record, err := store.Get(ctx, "item-a", 320)
	if err != nil {
		t.Fatal(err)
	}
	if record.Manifest.ThumbnailCount != 99 || record.DestDir != "/new" {
		t.Fatalf("upsert did not replace record: %+v", record)
	}

	widths, err := store.Widths(ctx, "item-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(widths) != 1 {
		t.Fatalf("expected single width after upsert, got %v", widths)
	}
}

func TestWidthsSorted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, width := range []int{640, 240, 320} {
		if err := store.Save(ctx, "item-a", "/dest", sampleManifest(width)); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Save(ctx, "item-b", "/dest", sampleManifest(320)); err != nil {
		t.Fatal(err)
	}

	widths, err := store.Widths(ctx, "item-a")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{240, 320, 640}
	if len(widths) != len(want) {
		t.Fatalf("widths = %v, want %v", widths, want)
	}
	for i := range want {
		if widths[i] != want[i] {
			t.Fatalf("widths = %v, want %v", widths, want)
		}
	}
}

func TestDeleteAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, "item-a", "/dest", sampleManifest(320))
	_ = store.Save(ctx, "item-a", "/dest", sampleManifest(640))
	_ = store.Save(ctx, "item-b", "/dest", sampleManifest(320))

	stats, err := store.StatsSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Items != 2 || stats.Manifests != 3 {
		t.Fatalf("stats = %+v, want 2 items / 3 manifests", stats)
	}

	removed, err := store.Delete(ctx, "item-a", 320)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Fatal("expected Delete to report a removed row")
	}
	removed, err = store.Delete(ctx, "item-a", 320)
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Fatal("expected second Delete to be a no-op")
	}
}
