// Package bif parses the legacy BIF scrub-preview container.
//
// A BIF file is a 64-byte little-endian header (frame interval at byte 16,
// zero meaning 1000ms) followed by repeating 8-byte (timestamp, offset) index
// records terminated by a sentinel timestamp of 0xFFFFFFFF, then the embedded
// still images back to back. ParseIndex recovers the frame byte ranges and
// ExtractFrames writes each frame out as an individually addressable file.
//
// Only this one fixed layout is supported; the package is not a general
// binary-container framework.
package bif
