// Package tiles composes extracted preview frames into JPEG tile sheets.
//
// The Generator resizes each frame to the requested thumbnail width, packs
// frames row-major into fixed-size grids, and writes numbered sheet files plus
// a manifest.json sidecar describing the set (grid geometry, thumbnail count,
// frame interval). The manifest is the unit persisted by the tile store.
package tiles
