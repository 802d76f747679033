package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	return c.validateTrickplay()
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	return nil
}

func (c *Config) validateTrickplay() error {
	for _, width := range c.Trickplay.Widths {
		if width <= 0 {
			return fmt.Errorf("trickplay.widths entries must be positive, got %d", width)
		}
	}
	if c.Trickplay.TileWidth <= 0 {
		return errors.New("trickplay.tile_width must be positive")
	}
	if c.Trickplay.TileHeight <= 0 {
		return errors.New("trickplay.tile_height must be positive")
	}
	if c.Trickplay.Quality < 1 || c.Trickplay.Quality > 100 {
		return errors.New("trickplay.quality must be between 1 and 100")
	}
	return nil
}
