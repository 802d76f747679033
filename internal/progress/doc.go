// Package progress buffers user-facing run output for external polling.
//
// Each operation kind (convert, clean) owns one Log. The orchestrator appends
// severity-tagged lines while it iterates candidates; the status API renders
// the buffer as plain text on demand. The buffer is cleared when a new run of
// the same kind starts.
package progress
