package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"trickplay/internal/bif"
	"trickplay/internal/library"
	"trickplay/internal/logging"
	"trickplay/internal/tiles"
)

// RunConversion converts every eligible legacy index into tile sheets.
// Candidates are processed strictly sequentially; any failure is confined to
// its candidate and the run continues. Returns ErrBusy when a conversion run
// is already active.
func (c *Converter) RunConversion(ctx context.Context, opts ConvertOptions) (Summary, error) {
	if !c.convertGate.TryAcquire() {
		return Summary{}, ErrBusy
	}
	defer c.convertGate.Release()

	runLogger := logging.WithComponent(c.logger, "convert").With(
		logging.String("run_id", uuid.NewString()),
		logging.Bool("force", opts.Force),
	)
	start := time.Now()

	c.convertLog.Clear()
	c.convertLog.Info("conversion run started")
	runLogger.Info("conversion run started")

	if err := c.cfg.EnsureDirectories(); err != nil {
		c.convertLog.Error("cannot prepare working directories: %v", err)
		runLogger.Error("conversion run aborted", logging.Error(err))
		return Summary{}, err
	}

	candidates, err := c.library.Candidates(ctx, false)
	if err != nil {
		c.convertLog.Error("candidate enumeration failed: %v", err)
		runLogger.Error("conversion run aborted", logging.Error(err))
		return Summary{}, err
	}
	c.convertLog.Info("found %d conversion candidates", len(candidates))

	var summary Summary
	for _, candidate := range candidates {
		result, err := runCandidate(func() (candidateResult, error) {
			return c.convertOne(ctx, candidate, opts, runLogger)
		})
		switch result {
		case resultSkipped:
			continue
		case resultCompleted:
			summary.Attempted++
			summary.Completed++
		case resultFailed:
			summary.Attempted++
			runLogger.Error("candidate conversion failed",
				logging.String("item", candidate.Item.Name),
				logging.Int("width", candidate.Width),
				logging.Error(err))
			c.convertLog.Error("%s (%dpx): %v", candidate.Item.Name, candidate.Width, err)
		}
	}

	if summary.Attempted == 0 {
		c.convertLog.Info("no legacy indexes required conversion")
	} else {
		c.convertLog.Success("converted %d of %d attempted", summary.Completed, summary.Attempted)
	}
	runLogger.Info("conversion run finished",
		logging.Int("attempted", summary.Attempted),
		logging.Int("completed", summary.Completed),
		logging.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (c *Converter) convertOne(ctx context.Context, candidate library.Candidate, opts ConvertOptions, runLogger *slog.Logger) (candidateResult, error) {
	destDir := c.library.DestDir(candidate.Item, candidate.Width)

	if !opts.Force && dirExists(destDir) {
		exists, err := c.hasManifest(ctx, candidate.Item.ID, candidate.Width)
		if err != nil {
			return resultFailed, err
		}
		if exists {
			runLogger.Debug("candidate already converted",
				logging.String("item", candidate.Item.Name),
				logging.Int("width", candidate.Width))
			c.convertLog.Info("skipped %s (%dpx): tile sheets already present", candidate.Item.Name, candidate.Width)
			return resultSkipped, nil
		}
	}

	scratch, err := os.MkdirTemp(c.cfg.Paths.StagingDir, fmt.Sprintf("frames-%s-%d-", candidate.Item.ID, candidate.Width))
	if err != nil {
		return resultFailed, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			runLogger.Warn("scratch directory cleanup failed",
				logging.String("dir", scratch),
				logging.Error(err))
		}
	}()

	frames, interval, err := c.extractFrames(candidate.BIFPath, scratch)
	if err != nil {
		return resultFailed, err
	}
	if len(frames) == 0 {
		return resultFailed, wrap(bif.ErrFormat, "extract", "index describes zero frames", nil)
	}
	runLogger.Debug("frames extracted",
		logging.String("item", candidate.Item.Name),
		logging.Int("frames", len(frames)),
		logging.Int64("interval_ms", int64(interval)))

	genOpts := tiles.Options{
		Interval:   interval,
		TileWidth:  c.cfg.Trickplay.TileWidth,
		TileHeight: c.cfg.Trickplay.TileHeight,
		Quality:    c.cfg.Trickplay.Quality,
	}
	manifest, err := c.generator.Generate(ctx, frames, candidate.Width, genOpts, destDir)
	if err != nil {
		return resultFailed, wrap(ErrCollaborator, "generate tiles", "", err)
	}

	if err := c.store.Save(ctx, candidate.Item.ID, destDir, manifest); err != nil {
		return resultFailed, wrap(ErrCollaborator, "persist manifest", "", err)
	}

	c.convertLog.Success("converted %s (%dpx): %d frames, %d sheets",
		candidate.Item.Name, candidate.Width, manifest.ThumbnailCount, manifest.SheetCount)
	runLogger.Info("candidate converted",
		logging.String("item", candidate.Item.Name),
		logging.Int("width", candidate.Width),
		logging.Int("frames", manifest.ThumbnailCount))
	return resultCompleted, nil
}

// extractFrames parses the BIF index and writes each frame into scratch,
// returning the frame paths and the effective interval.
func (c *Converter) extractFrames(bifPath, scratch string) ([]string, uint32, error) {
	file, err := os.Open(bifPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open legacy index: %w", err)
	}
	defer file.Close()

	idx, err := bif.ParseIndex(file)
	if err != nil {
		return nil, 0, err
	}
	frames, err := bif.ExtractFrames(file, idx, scratch)
	if err != nil {
		return nil, 0, err
	}
	return frames, idx.Interval, nil
}
