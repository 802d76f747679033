package main

import (
	"log/slog"
	"strings"
	"sync"

	"trickplay/internal/config"
	"trickplay/internal/convert"
	"trickplay/internal/library"
	"trickplay/internal/logging"
	"trickplay/internal/tiles"
	"trickplay/internal/tilestore"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}

// buildConverter wires the full conversion stack. The caller owns the
// returned store and must close it.
func (c *commandContext) buildConverter(cfg *config.Config, logger *slog.Logger) (*convert.Converter, *tilestore.Store, error) {
	store, err := tilestore.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	scanner := library.NewScanner(cfg, logger)
	generator := tiles.NewGenerator(logger)
	return convert.New(cfg, logger, scanner, generator, store), store, nil
}
