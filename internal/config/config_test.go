package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"trickplay/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TRICKPLAY_CONFIG", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "trickplay")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "library") {
		t.Fatalf("unexpected library dir: %q", cfg.Paths.LibraryDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7489" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Trickplay.TileWidth != 10 || cfg.Trickplay.TileHeight != 10 {
		t.Fatalf("unexpected tile grid: %dx%d", cfg.Trickplay.TileWidth, cfg.Trickplay.TileHeight)
	}
	if cfg.Trickplay.Quality != 85 {
		t.Fatalf("unexpected quality: %d", cfg.Trickplay.Quality)
	}
	if len(cfg.Trickplay.Widths) != 1 || cfg.Trickplay.Widths[0] != 320 {
		t.Fatalf("unexpected widths: %v", cfg.Trickplay.Widths)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	body := strings.Join([]string{
		"[paths]",
		`library_dir = "~/media"`,
		"[trickplay]",
		"widths = [320, 320, 0, 240]",
		"quality = 70",
		"[logging]",
		`format = "JSON"`,
		`level = "Debug"`,
	}, "\n")
	path := filepath.Join(tempHome, "trickplay.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Paths.LibraryDir != filepath.Join(tempHome, "media") {
		t.Fatalf("unexpected library dir: %q", cfg.Paths.LibraryDir)
	}
	if got := cfg.Trickplay.Widths; len(got) != 2 || got[0] != 320 || got[1] != 240 {
		t.Fatalf("expected deduplicated widths [320 240], got %v", got)
	}
	if cfg.Trickplay.Quality != 70 {
		t.Fatalf("unexpected quality: %d", cfg.Trickplay.Quality)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadQuality(t *testing.T) {
	cfg := config.Default()
	cfg.Trickplay.Quality = 250
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for quality > 100")
	}
}

func TestDefaultRoundTripsThroughTOML(t *testing.T) {
	cfg := config.Default()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal default config: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal default config: %v", err)
	}
	if decoded.Paths.APIBind != cfg.Paths.APIBind {
		t.Fatalf("api bind changed across round trip: %q", decoded.Paths.APIBind)
	}
}
