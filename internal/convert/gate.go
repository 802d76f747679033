package convert

import (
	"log/slog"
	"sync/atomic"

	"trickplay/internal/logging"
)

// Gate admits at most one active run of one operation kind. Acquisition never
// blocks: a busy gate rejects the caller immediately.
type Gate struct {
	name   string
	logger *slog.Logger
	busy   atomic.Bool
}

// NewGate constructs a gate for the named operation kind.
func NewGate(name string, logger *slog.Logger) *Gate {
	return &Gate{name: name, logger: logging.WithComponent(logger, "gate")}
}

// TryAcquire claims the gate, reporting false (with a logged rejection) when a
// run is already active. Callers must pair a successful acquisition with a
// deferred Release so the gate opens on every exit path.
func (g *Gate) TryAcquire() bool {
	if !g.busy.CompareAndSwap(false, true) {
		g.logger.Warn("run rejected, another run is active", logging.String("operation", g.name))
		return false
	}
	return true
}

// Release opens the gate unconditionally.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Active reports whether a run currently holds the gate.
func (g *Gate) Active() bool {
	return g.busy.Load()
}
