// Package convert orchestrates the two batch operations over a media
// library: converting legacy BIF scrub-preview indexes into tile sheets, and
// deleting indexes whose replacement is proven to exist.
//
// Both operations share the same run shape. A Gate admits at most one active
// run per operation kind and rejects concurrent starts without blocking. The
// run enumerates candidates through the Library interface, processes them
// strictly sequentially, and isolates every failure at the candidate
// boundary so one malformed file cannot abort the batch. Each run clears and
// refills its own progress.Log, which pollers read through the daemon API.
//
// Conversion extracts frames into a per-candidate scratch directory under
// the staging path, generates tile sheets through the Generator interface,
// and records the manifest in the ManifestStore. Deletion enforces the
// extension, folder-name, and residue safety policies unless the matching
// force flags are set.
package convert
