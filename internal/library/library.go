package library

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const (
	// LegacyDirName is the fixed container directory that holds BIF indexes
	// next to a media file.
	LegacyDirName = "trickplay"
	// LegacyExtension is the fixed extension of a legacy scrub-preview index.
	LegacyExtension = ".bif"
)

// residualExtensions may remain in a legacy folder without blocking a
// non-forced deletion: manifest sidecars and ignore markers.
var residualExtensions = map[string]struct{}{
	".json":   {},
	".ignore": {},
}

// AllowedResidual reports whether a file may stay behind in a legacy folder.
func AllowedResidual(path string) bool {
	_, ok := residualExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsLegacyArtifact reports whether path names a BIF index, case-insensitively.
func IsLegacyArtifact(path string) bool {
	return strings.EqualFold(filepath.Ext(path), LegacyExtension)
}

// Item is one media entry discovered in the library. Identity is a stable
// digest of the media path so manifests survive rescans.
type Item struct {
	ID        string
	Name      string
	MediaPath string
}

// Candidate pairs an item with one legacy index at one thumbnail width.
// Candidates are produced fresh on every run and never persisted.
type Candidate struct {
	Item    Item
	BIFPath string
	Width   int
}

// NewItem derives an Item from a media file path.
func NewItem(mediaPath string) Item {
	digest := sha256.Sum256([]byte(mediaPath))
	base := filepath.Base(mediaPath)
	return Item{
		ID:        hex.EncodeToString(digest[:8]),
		Name:      strings.TrimSuffix(base, filepath.Ext(base)),
		MediaPath: mediaPath,
	}
}

// LegacyDir returns the trickplay folder that holds the item's BIF indexes.
func LegacyDir(item Item) string {
	return filepath.Join(filepath.Dir(item.MediaPath), LegacyDirName)
}

// LegacyArtifactPath returns the BIF path for an item at the given width,
// whether or not it exists.
func LegacyArtifactPath(item Item, width int) string {
	return filepath.Join(LegacyDir(item), widthName(width)+LegacyExtension)
}
