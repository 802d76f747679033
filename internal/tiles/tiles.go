package tiles

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	// Frames are usually JPEG but some BIF writers embed other still formats.
	_ "golang.org/x/image/webp"

	"trickplay/internal/logging"
)

// ManifestFileName is the sidecar written next to the generated sheets.
const ManifestFileName = "manifest.json"

// Options carries per-run generation settings. Interval comes from the parsed
// BIF; grid geometry and quality come from configuration.
type Options struct {
	Interval   uint32 `json:"-"`
	TileWidth  int    `json:"-"`
	TileHeight int    `json:"-"`
	Quality    int    `json:"-"`
}

// Manifest describes one generated tile set for a (item, width) pair.
type Manifest struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	TileWidth      int    `json:"tile_width"`
	TileHeight     int    `json:"tile_height"`
	ThumbnailCount int    `json:"thumbnail_count"`
	SheetCount     int    `json:"sheet_count"`
	Interval       uint32 `json:"interval"`
	Quality        int    `json:"quality"`
}

// Generator composes extracted frame files into JPEG tile sheets.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator constructs a sheet generator.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logging.WithComponent(logger, "tiles")}
}

// Generate resizes every frame to width, packs them row-major into
// TileWidth x TileHeight grids, writes the sheets as <n>.jpg under destDir
// along with a manifest sidecar, and returns the manifest.
func (g *Generator) Generate(ctx context.Context, framePaths []string, width int, opts Options, destDir string) (*Manifest, error) {
	if len(framePaths) == 0 {
		return nil, fmt.Errorf("no frames to compose")
	}
	if width <= 0 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}
	if opts.TileWidth <= 0 || opts.TileHeight <= 0 {
		return nil, fmt.Errorf("invalid tile grid %dx%d", opts.TileWidth, opts.TileHeight)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}

	first, err := imaging.Open(framePaths[0], imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode frame 0: %w", err)
	}
	thumbHeight := scaledHeight(first.Bounds(), width)

	perSheet := opts.TileWidth * opts.TileHeight
	sheetCount := (len(framePaths) + perSheet - 1) / perSheet

	var sheet *image.NRGBA
	sheetIdx := 0
	for i, framePath := range framePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var frame image.Image
		if i == 0 {
			frame = first
		} else {
			frame, err = imaging.Open(framePath, imaging.AutoOrientation(true))
			if err != nil {
				return nil, fmt.Errorf("decode frame %d: %w", i, err)
			}
		}
		thumb := imaging.Resize(frame, width, thumbHeight, imaging.Lanczos)

		pos := i % perSheet
		if pos == 0 {
			sheet = imaging.New(width*opts.TileWidth, thumbHeight*opts.TileHeight, color.NRGBA{A: 255})
		}
		x := (pos % opts.TileWidth) * width
		y := (pos / opts.TileWidth) * thumbHeight
		sheet = imaging.Paste(sheet, thumb, image.Pt(x, y))

		if pos == perSheet-1 || i == len(framePaths)-1 {
			if err := g.saveSheet(sheet, destDir, sheetIdx, opts.Quality); err != nil {
				return nil, err
			}
			sheetIdx++
		}
	}

	manifest := &Manifest{
		Width:          width,
		Height:         thumbHeight,
		TileWidth:      opts.TileWidth,
		TileHeight:     opts.TileHeight,
		ThumbnailCount: len(framePaths),
		SheetCount:     sheetCount,
		Interval:       opts.Interval,
		Quality:        opts.Quality,
	}
	if err := WriteManifest(destDir, manifest); err != nil {
		return nil, err
	}

	g.logger.Debug("tile sheets generated",
		logging.Int("frames", len(framePaths)),
		logging.Int("sheets", sheetCount),
		logging.Int("width", width),
		logging.String("dest", destDir))
	return manifest, nil
}

func (g *Generator) saveSheet(sheet *image.NRGBA, destDir string, index, quality int) error {
	path := filepath.Join(destDir, strconv.Itoa(index)+".jpg")
	if err := imaging.Save(sheet, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save sheet %d: %w", index, err)
	}
	return nil
}

// WriteManifest stores the sidecar manifest under destDir.
func WriteManifest(destDir string, manifest *Manifest) error {
	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(destDir, ManifestFileName)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the sidecar manifest from destDir.
func ReadManifest(destDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(destDir, ManifestFileName))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

func scaledHeight(bounds image.Rectangle, width int) int {
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if srcWidth <= 0 || srcHeight <= 0 {
		return width * 9 / 16
	}
	height := width * srcHeight / srcWidth
	if height <= 0 {
		height = 1
	}
	return height
}
