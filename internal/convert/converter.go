package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"trickplay/internal/config"
	"trickplay/internal/library"
	"trickplay/internal/logging"
	"trickplay/internal/progress"
	"trickplay/internal/tiles"
)

// Library supplies conversion candidates and resolves tile destinations.
// Satisfied by library.Scanner; tests substitute in-memory fakes.
type Library interface {
	Candidates(ctx context.Context, allowMissing bool) ([]library.Candidate, error)
	DestDir(item library.Item, width int) string
}

// Generator turns an extracted frame sequence into tile sheets plus manifest.
type Generator interface {
	Generate(ctx context.Context, framePaths []string, width int, opts tiles.Options, destDir string) (*tiles.Manifest, error)
}

// ManifestStore records which (item, width) pairs already have tile sheets.
type ManifestStore interface {
	Widths(ctx context.Context, itemID string) ([]int, error)
	Save(ctx context.Context, itemID, destDir string, manifest *tiles.Manifest) error
}

// ConvertOptions controls one conversion run.
type ConvertOptions struct {
	// Force re-converts candidates even when a replacement already exists.
	Force bool
}

// CleanOptions controls one deletion run.
type CleanOptions struct {
	// Force skips the replacement proof and the extension/folder-name checks.
	Force bool
	// DeleteNonEmpty removes legacy folders recursively even when they hold
	// files outside the residual allow-list.
	DeleteNonEmpty bool
}

// Summary aggregates one run's outcome.
type Summary struct {
	Attempted int `json:"attempted"`
	Completed int `json:"completed"`
}

// Converter drives conversion and deletion runs over the media library. The
// two operation kinds are independently single-flighted and keep independent
// progress buffers.
type Converter struct {
	cfg       *config.Config
	logger    *slog.Logger
	library   Library
	generator Generator
	store     ManifestStore

	convertGate *Gate
	cleanGate   *Gate
	convertLog  *progress.Log
	cleanLog    *progress.Log
}

// New constructs a converter with its gates and progress buffers.
func New(cfg *config.Config, logger *slog.Logger, lib Library, generator Generator, store ManifestStore) *Converter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		cfg:         cfg,
		logger:      logger,
		library:     lib,
		generator:   generator,
		store:       store,
		convertGate: NewGate("convert", logger),
		cleanGate:   NewGate("clean", logger),
		convertLog:  progress.New(),
		cleanLog:    progress.New(),
	}
}

// ConvertLog exposes the conversion progress buffer for polling.
func (c *Converter) ConvertLog() *progress.Log { return c.convertLog }

// CleanLog exposes the deletion progress buffer for polling.
func (c *Converter) CleanLog() *progress.Log { return c.cleanLog }

// Converting reports whether a conversion run is active.
func (c *Converter) Converting() bool { return c.convertGate.Active() }

// Cleaning reports whether a deletion run is active.
func (c *Converter) Cleaning() bool { return c.cleanGate.Active() }

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *Converter) hasManifest(ctx context.Context, itemID string, width int) (bool, error) {
	widths, err := c.store.Widths(ctx, itemID)
	if err != nil {
		return false, wrap(ErrCollaborator, "query manifests", "", err)
	}
	for _, w := range widths {
		if w == width {
			return true, nil
		}
	}
	return false, nil
}

// runCandidate executes one candidate's work with panic isolation so a single
// bad file cannot abort the batch.
func runCandidate(fn func() (candidateResult, error)) (result candidateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = resultFailed
			err = fmt.Errorf("%w: candidate panicked: %v", ErrCollaborator, r)
		}
	}()
	return fn()
}

type candidateResult int

const (
	resultCompleted candidateResult = iota
	resultSkipped
	resultFailed
)
