package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"trickplay/internal/config"
	"trickplay/internal/convert"
	"trickplay/internal/logging"
	"trickplay/internal/preflight"
	"trickplay/internal/tilestore"
)

// Daemon owns the long-running process: the HTTP trigger/status surface plus
// flock-based locking to prevent multiple instances against one data
// directory.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	converter *convert.Converter
	store     *tilestore.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	api     *apiServer
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool            `json:"running"`
	Converting   bool            `json:"converting"`
	Cleaning     bool            `json:"cleaning"`
	LibraryDir   string          `json:"library_dir"`
	LockFilePath string          `json:"lock_file_path"`
	Store        tilestore.Stats `json:"store"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *tilestore.Store, converter *convert.Converter, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || converter == nil {
		return nil, errors.New("daemon requires config, store, and converter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "trickplay.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		converter: converter,
		store:     store,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, verifies directory access, and brings up
// the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another trickplay daemon instance is already running")
	}

	if results := preflight.RunAll(d.cfg); !preflight.AllPassed(results) {
		_ = d.lock.Unlock()
		for _, result := range results {
			if !result.Passed {
				d.logger.Error("preflight check failed",
					logging.String("check", result.Name),
					logging.String("detail", result.Detail))
			}
		}
		return errors.New("preflight checks failed")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if bind := strings.TrimSpace(d.cfg.Paths.APIBind); bind != "" {
		d.api = newAPIServer(bind, d, d.logger)
		if err := d.api.start(runCtx); err != nil {
			_ = d.lock.Unlock()
			cancel()
			d.cancel = nil
			d.api = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("trickplay daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("trickplay daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime state and manifest store counts.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Converting:   d.converter.Converting(),
		Cleaning:     d.converter.Cleaning(),
		LibraryDir:   d.cfg.Paths.LibraryDir,
		LockFilePath: d.lockPath,
	}
	stats, err := d.store.StatsSummary(ctx)
	if err != nil {
		d.logger.Warn("manifest stats unavailable", logging.Error(err))
	} else {
		status.Store = stats
	}
	return status
}
