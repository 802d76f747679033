package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"trickplay/internal/config"
	"trickplay/internal/logging"
)

var mediaExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".m4v": {},
	".avi": {},
	".mov": {},
}

// Scanner discovers media items and their legacy BIF indexes under the
// configured library directory. It also resolves tile destination directories,
// so one value serves as both candidate source and location resolver.
type Scanner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewScanner constructs a library scanner.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	return &Scanner{cfg: cfg, logger: logging.WithComponent(logger, "library")}
}

// Items walks the library and returns one item per media file. When several
// media files share a folder, the first in walk order claims the folder's
// trickplay directory.
func (s *Scanner) Items(ctx context.Context) ([]Item, error) {
	root := s.cfg.Paths.LibraryDir
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("stat library root: %w", err)
	}

	var items []Item
	claimed := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			// Never descend into legacy or generated preview folders.
			name := entry.Name()
			if strings.EqualFold(name, LegacyDirName) || name == ".trickplay" {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := mediaExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		dir := filepath.Dir(path)
		if first, ok := claimed[dir]; ok {
			s.logger.Debug("multiple media files share a folder",
				logging.String("folder", dir),
				logging.String("claimed_by", first),
				logging.String("skipped", path))
			return nil
		}
		claimed[dir] = path
		items = append(items, NewItem(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk library: %w", err)
	}
	return items, nil
}

// Candidates enumerates (item, width) pairs with a discoverable legacy index.
// With allowMissing, prospective widths from configuration are included even
// when no BIF exists yet, so forced conversion can regenerate configured
// resolutions.
func (s *Scanner) Candidates(ctx context.Context, allowMissing bool) ([]Candidate, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, item := range items {
		discovered, err := s.discoveredWidths(item)
		if err != nil {
			return nil, err
		}
		widths := make([]int, 0, len(discovered))
		for width := range discovered {
			widths = append(widths, width)
		}
		if allowMissing {
			widths = mergeWidths(widths, s.cfg.Trickplay.Widths)
		} else {
			sort.Ints(widths)
		}
		for _, width := range widths {
			path := LegacyArtifactPath(item, width)
			if name, ok := discovered[width]; ok {
				// Preserve the on-disk name; extensions may differ in case.
				path = filepath.Join(LegacyDir(item), name)
			}
			candidates = append(candidates, Candidate{
				Item:    item,
				BIFPath: path,
				Width:   width,
			})
		}
	}
	return candidates, nil
}

// DestDir resolves where generated tile sheets for (item, width) live.
func (s *Scanner) DestDir(item Item, width int) string {
	if s.cfg.Trickplay.SaveAlongsideMedia {
		return filepath.Join(filepath.Dir(item.MediaPath), ".trickplay", widthName(width))
	}
	return filepath.Join(s.cfg.Paths.DataDir, "trickplay", item.ID, widthName(width))
}

// discoveredWidths maps widths to existing BIF file names in the item's
// legacy dir, parsed from names like 320.bif.
func (s *Scanner) discoveredWidths(item Item) (map[int]string, error) {
	entries, err := os.ReadDir(LegacyDir(item))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy dir: %w", err)
	}

	discovered := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !IsLegacyArtifact(entry.Name()) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		width, err := strconv.Atoi(stem)
		if err != nil || width <= 0 {
			s.logger.Debug("ignoring bif with non-numeric name",
				logging.String("file", entry.Name()),
				logging.String("item", item.Name))
			continue
		}
		discovered[width] = entry.Name()
	}
	return discovered, nil
}

func mergeWidths(existing, extra []int) []int {
	seen := make(map[int]struct{}, len(existing))
	for _, width := range existing {
		seen[width] = struct{}{}
	}
	merged := append([]int{}, existing...)
	for _, width := range extra {
		if _, ok := seen[width]; ok {
			continue
		}
		seen[width] = struct{}{}
		merged = append(merged, width)
	}
	sort.Ints(merged)
	return merged
}

func widthName(width int) string {
	return strconv.Itoa(width)
}
