// Package library discovers media items and their legacy scrub-preview
// artifacts.
//
// The Scanner walks the configured library directory, derives stable item
// identities from media paths, enumerates (item, width) conversion candidates
// from trickplay/<width>.bif siblings, and resolves where generated tile
// sheets belong (alongside the media or under the data directory). Path layout
// policy for both the legacy and replacement formats lives here.
package library
