package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTrickplay()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = ExpandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = ExpandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTrickplay() {
	if len(c.Trickplay.Widths) == 0 {
		c.Trickplay.Widths = []int{320}
	} else {
		widths := make([]int, 0, len(c.Trickplay.Widths))
		seen := make(map[int]struct{}, len(c.Trickplay.Widths))
		for _, width := range c.Trickplay.Widths {
			if width <= 0 {
				continue
			}
			if _, exists := seen[width]; exists {
				continue
			}
			seen[width] = struct{}{}
			widths = append(widths, width)
		}
		if len(widths) == 0 {
			widths = []int{320}
		}
		c.Trickplay.Widths = widths
	}
	if c.Trickplay.TileWidth <= 0 {
		c.Trickplay.TileWidth = defaultTileWidth
	}
	if c.Trickplay.TileHeight <= 0 {
		c.Trickplay.TileHeight = defaultTileHeight
	}
	if c.Trickplay.Quality <= 0 {
		c.Trickplay.Quality = defaultQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
