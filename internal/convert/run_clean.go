package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"trickplay/internal/library"
	"trickplay/internal/logging"
)

// RunCleanup deletes legacy BIF indexes whose tile replacements exist, then
// disposes of the emptied trickplay folders. Safety checks guard every
// deletion unless the matching force flag is set. Returns ErrBusy when a
// deletion run is already active.
func (c *Converter) RunCleanup(ctx context.Context, opts CleanOptions) (Summary, error) {
	if !c.cleanGate.TryAcquire() {
		return Summary{}, ErrBusy
	}
	defer c.cleanGate.Release()

	runLogger := logging.WithComponent(c.logger, "clean").With(
		logging.String("run_id", uuid.NewString()),
		logging.Bool("force", opts.Force),
		logging.Bool("delete_non_empty", opts.DeleteNonEmpty),
	)
	start := time.Now()

	c.cleanLog.Clear()
	c.cleanLog.Info("cleanup run started")
	runLogger.Info("cleanup run started")

	// Deletion admits candidates whose index is already gone so folder residue
	// left by an interrupted earlier run still gets disposed of.
	candidates, err := c.library.Candidates(ctx, true)
	if err != nil {
		c.cleanLog.Error("candidate enumeration failed: %v", err)
		runLogger.Error("cleanup run aborted", logging.Error(err))
		return Summary{}, err
	}
	c.cleanLog.Info("found %d deletion candidates", len(candidates))

	var summary Summary
	for _, candidate := range candidates {
		result, err := runCandidate(func() (candidateResult, error) {
			return c.cleanOne(ctx, candidate, opts, runLogger)
		})
		switch result {
		case resultSkipped:
			continue
		case resultCompleted:
			summary.Attempted++
			summary.Completed++
		case resultFailed:
			summary.Attempted++
			runLogger.Error("candidate deletion failed",
				logging.String("item", candidate.Item.Name),
				logging.Int("width", candidate.Width),
				logging.Error(err))
			c.cleanLog.Error("%s (%dpx): %v", candidate.Item.Name, candidate.Width, err)
		}
	}

	if summary.Attempted == 0 {
		c.cleanLog.Info("no legacy indexes were eligible for deletion")
	} else {
		c.cleanLog.Success("deleted %d of %d attempted", summary.Completed, summary.Attempted)
	}
	runLogger.Info("cleanup run finished",
		logging.Int("attempted", summary.Attempted),
		logging.Int("completed", summary.Completed),
		logging.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (c *Converter) cleanOne(ctx context.Context, candidate library.Candidate, opts CleanOptions, runLogger *slog.Logger) (candidateResult, error) {
	// A legacy index is only deletable once its tile replacement is proven to
	// exist on disk and in the store.
	if !opts.Force {
		replaced, err := c.hasReplacement(ctx, candidate)
		if err != nil {
			return resultFailed, err
		}
		if !replaced {
			runLogger.Debug("keeping index without a tile replacement",
				logging.String("item", candidate.Item.Name),
				logging.Int("width", candidate.Width))
			c.cleanLog.Error("kept %s (%dpx): no tile replacement exists yet", candidate.Item.Name, candidate.Width)
			return resultSkipped, nil
		}
	}

	deleted := false
	if fileExists(candidate.BIFPath) {
		if !opts.Force && !library.IsLegacyArtifact(candidate.BIFPath) {
			return resultFailed, wrap(ErrPolicy, "delete",
				fmt.Sprintf("%s does not carry the %s extension", filepath.Base(candidate.BIFPath), library.LegacyExtension), nil)
		}
		if err := os.Remove(candidate.BIFPath); err != nil {
			return resultFailed, fmt.Errorf("remove legacy index: %w", err)
		}
		deleted = true
		c.cleanLog.Success("deleted %s (%dpx)", candidate.Item.Name, candidate.Width)
		runLogger.Info("legacy index deleted",
			logging.String("item", candidate.Item.Name),
			logging.Int("width", candidate.Width))
	} else if !dirExists(library.LegacyDir(candidate.Item)) {
		// Nothing on disk for this candidate at all.
		return resultSkipped, nil
	}

	// A mis-structured path is never auto-deleted, even when the index itself
	// was removed above.
	parent := filepath.Base(filepath.Dir(candidate.BIFPath))
	if !opts.Force && !strings.EqualFold(parent, library.LegacyDirName) {
		return resultFailed, wrap(ErrPolicy, "remove folder",
			fmt.Sprintf("parent folder %q is not a %s folder", parent, library.LegacyDirName), nil)
	}

	return c.disposeFolder(candidate, opts, deleted, runLogger)
}

// hasReplacement reports whether tile sheets fully replace the candidate's
// legacy index: both the destination directory and its manifest record must
// exist.
func (c *Converter) hasReplacement(ctx context.Context, candidate library.Candidate) (bool, error) {
	if !dirExists(c.library.DestDir(candidate.Item, candidate.Width)) {
		return false, nil
	}
	return c.hasManifest(ctx, candidate.Item.ID, candidate.Width)
}

// disposeFolder removes the legacy folder once nothing worth keeping remains.
// Sibling indexes at other widths leave the folder in place without failing
// the candidate; anything outside the residual allow-list blocks removal
// unless DeleteNonEmpty is set.
func (c *Converter) disposeFolder(candidate library.Candidate, opts CleanOptions, deleted bool, runLogger *slog.Logger) (candidateResult, error) {
	dir := filepath.Dir(candidate.BIFPath)
	if !dirExists(dir) {
		if deleted {
			return resultCompleted, nil
		}
		return resultSkipped, nil
	}

	if !opts.DeleteNonEmpty {
		siblings, blockers, err := scanResidue(dir)
		if err != nil {
			return resultFailed, fmt.Errorf("scan legacy folder: %w", err)
		}
		if len(siblings) > 0 {
			for _, name := range siblings {
				runLogger.Debug("sibling index remains",
					logging.String("folder", dir),
					logging.String("file", name))
			}
			c.cleanLog.Info("kept folder for %s: %d sibling indexes remain", candidate.Item.Name, len(siblings))
			if deleted {
				return resultCompleted, nil
			}
			return resultSkipped, nil
		}
		if len(blockers) > 0 {
			for _, name := range blockers {
				c.cleanLog.Error("unexpected file in %s folder of %s: %s", library.LegacyDirName, candidate.Item.Name, name)
			}
			return resultFailed, wrap(ErrPolicy, "remove folder",
				fmt.Sprintf("%s holds files outside the allow-list; re-run with delete-non-empty to remove them", dir), nil)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return resultFailed, fmt.Errorf("remove legacy folder: %w", err)
	}
	c.cleanLog.Info("removed %s folder for %s", library.LegacyDirName, candidate.Item.Name)
	runLogger.Info("legacy folder removed", logging.String("folder", dir))
	return resultCompleted, nil
}

// scanResidue walks the legacy folder and buckets every file into sibling
// indexes versus disallowed residue. Allow-listed residuals appear in neither
// bucket.
func scanResidue(dir string) (siblings, blockers []string, err error) {
	err = filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = entry.Name()
		}
		switch {
		case library.IsLegacyArtifact(path):
			siblings = append(siblings, rel)
		case library.AllowedResidual(path):
		default:
			blockers = append(blockers, rel)
		}
		return nil
	})
	return siblings, blockers, err
}
