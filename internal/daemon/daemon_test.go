package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"trickplay/internal/config"
	"trickplay/internal/convert"
	"trickplay/internal/library"
	"trickplay/internal/tiles"
	"trickplay/internal/tilestore"
)

type fakeLibrary struct {
	candidates []library.Candidate
	destRoot   string
}

func (f *fakeLibrary) Candidates(_ context.Context, _ bool) ([]library.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeLibrary) DestDir(item library.Item, width int) string {
	return filepath.Join(f.destRoot, item.ID, strconv.Itoa(width))
}

type fakeGenerator struct {
	block chan struct{}
}

func (f *fakeGenerator) Generate(_ context.Context, framePaths []string, width int, opts tiles.Options, destDir string) (*tiles.Manifest, error) {
	if f.block != nil {
		<-f.block
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	return &tiles.Manifest{
		Width:          width,
		TileWidth:      opts.TileWidth,
		TileHeight:     opts.TileHeight,
		ThumbnailCount: len(framePaths),
		SheetCount:     1,
		Interval:       opts.Interval,
		Quality:        opts.Quality,
	}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return &cfg
}

func testDaemon(t *testing.T, cfg *config.Config, lib convert.Library, gen convert.Generator) *Daemon {
	t.Helper()
	store, err := tilestore.OpenPath(filepath.Join(cfg.Paths.DataDir, "manifests.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	converter := convert.New(cfg, nil, lib, gen, store)
	d, err := New(cfg, store, converter, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testConfig(t)
	lib := &fakeLibrary{destRoot: cfg.Paths.DataDir}
	first := testDaemon(t, cfg, lib, &fakeGenerator{})
	second := testDaemon(t, cfg, lib, &fakeGenerator{})

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must be rejected while the lock is held")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	second.Stop()
}

func TestStartFailsPreflight(t *testing.T) {
	cfg := testConfig(t)
	if err := os.RemoveAll(cfg.Paths.StagingDir); err != nil {
		t.Fatal(err)
	}
	d := testDaemon(t, cfg, &fakeLibrary{destRoot: cfg.Paths.DataDir}, &fakeGenerator{})

	if err := d.Start(context.Background()); err == nil {
		d.Stop()
		t.Fatal("expected preflight failure for a missing staging dir")
	}
}

func TestStatusEndpoint(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg, &fakeLibrary{destRoot: cfg.Paths.DataDir}, &fakeGenerator{})
	srv := newAPIServer(cfg.Paths.APIBind, d, nil)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.LockFilePath == "" {
		t.Fatal("status missing lock file path")
	}
	if status.Converting || status.Cleaning {
		t.Fatalf("no runs should be active: %+v", status)
	}

	rec = httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status code = %d, want 405", rec.Code)
	}
}

func TestProgressEndpointServesSnapshot(t *testing.T) {
	cfg := testConfig(t)
	d := testDaemon(t, cfg, &fakeLibrary{destRoot: cfg.Paths.DataDir}, &fakeGenerator{})
	srv := newAPIServer(cfg.Paths.APIBind, d, nil)

	if _, err := d.converter.RunConversion(context.Background(), convert.ConvertOptions{}); err != nil {
		t.Fatalf("RunConversion: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.progressHandler(d.converter.ConvertLog)(rec, httptest.NewRequest(http.MethodGet, "/api/convert/log", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q, want text/plain", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "conversion run started") {
		t.Fatalf("snapshot missing run header:\n%s", body)
	}
}

func TestConvertTriggerConflict(t *testing.T) {
	cfg := testConfig(t)
	mediaPath := filepath.Join(cfg.Paths.LibraryDir, "video", "video.mkv")
	if err := os.MkdirAll(filepath.Dir(mediaPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mediaPath, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	item := library.NewItem(mediaPath)
	bifPath := library.LegacyArtifactPath(item, 200)
	writeBIF(t, bifPath)

	lib := &fakeLibrary{
		destRoot:   cfg.Paths.DataDir,
		candidates: []library.Candidate{{Item: item, BIFPath: bifPath, Width: 200}},
	}
	gen := &fakeGenerator{block: make(chan struct{})}
	d := testDaemon(t, cfg, lib, gen)
	srv := newAPIServer(cfg.Paths.APIBind, d, nil)

	rec := httptest.NewRecorder()
	srv.handleConvert(rec, httptest.NewRequest(http.MethodPost, "/api/convert", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first trigger code = %d, want 202", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleConvert(rec, httptest.NewRequest(http.MethodPost, "/api/convert?force=1", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second trigger code = %d, want 409", rec.Code)
	}

	close(gen.block)
	deadline := time.Now().Add(5 * time.Second)
	for d.converter.Converting() {
		if time.Now().After(deadline) {
			t.Fatal("conversion run never finished")
		}
		time.Sleep(time.Millisecond)
	}

	rec = httptest.NewRecorder()
	srv.handleConvert(rec, httptest.NewRequest(http.MethodGet, "/api/convert", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET trigger code = %d, want 405", rec.Code)
	}
}

// writeBIF writes a one-frame BIF index so the conversion trigger has work.
func writeBIF(t *testing.T, path string) {
	t.Helper()
	data := make([]byte, 0, 64+16+5)
	header := make([]byte, 64)
	copy(header, []byte{'B', 'I', 'F', 0})
	header[12] = 1 // frame count
	header[16] = 0xE8
	header[17] = 0x03 // interval 1000
	data = append(data, header...)
	le := func(v uint32) {
		data = append(data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	le(0)  // timestamp 0
	le(80) // frame start after 64B header + 16B index
	le(0xFFFFFFFF)
	le(85) // end bound
	data = append(data, []byte("frame")...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
