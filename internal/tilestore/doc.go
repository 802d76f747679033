// Package tilestore persists generated tile manifests in SQLite.
//
// Each record keys a manifest by (item, width) so orchestrators can prove a
// replacement exists before skipping a conversion or deleting a legacy index.
// The database lives under the configured data directory and uses WAL mode;
// records are small JSON blobs, not the sheets themselves.
package tilestore
