// Package daemon coordinates the long-running trickplay process.
//
// It wires configuration, the manifest store, and the converter into a single
// lifecycle with flock-based locking to prevent multiple instances against one
// data directory. The daemon exposes the HTTP surface: a JSON status endpoint,
// plain-text progress snapshots for the conversion and cleanup runs, and POST
// triggers that answer 409 when a run of the same kind is already active.
//
// Run orchestration lives in the convert package; the daemon focuses on
// startup, shutdown, and the API surface.
package daemon
