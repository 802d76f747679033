package bif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFormat marks a malformed BIF index (truncated stream, missing sentinel,
// or offsets that run backwards).
var ErrFormat = errors.New("malformed bif index")

const (
	// headerSize is the fixed BIF header length; the index table starts
	// immediately after it.
	headerSize = 64
	// intervalOffset is the byte position of the u32 frame interval field.
	intervalOffset = 16
	// sentinelTimestamp terminates the index table. The sentinel entry's
	// offset bounds the final frame but is not itself a frame start.
	sentinelTimestamp = 0xFFFFFFFF
	// maxIndexEntries bounds the index scan so a stream that never yields the
	// sentinel fails instead of reading forever.
	maxIndexEntries = 1 << 20
	// defaultInterval substitutes for a zero interval field, a known quirk of
	// BIF writers rather than an error.
	defaultInterval = 1000
)

// Index holds the parsed frame table of one BIF file.
type Index struct {
	// Interval is the effective time between frames in milliseconds.
	Interval uint32
	// Offsets are the collected byte offsets, including the trailing end
	// bound taken from the sentinel entry.
	Offsets []uint32
}

// FrameCount reports how many frames the index describes.
func (idx Index) FrameCount() int {
	if len(idx.Offsets) < 2 {
		return 0
	}
	return len(idx.Offsets) - 1
}

// ParseIndex reads the interval field and the frame index table from a BIF
// stream. Frame i spans bytes [Offsets[i], Offsets[i+1]).
func ParseIndex(r io.ReadSeeker) (Index, error) {
	if _, err := r.Seek(intervalOffset, io.SeekStart); err != nil {
		return Index{}, fmt.Errorf("seek interval field: %w", err)
	}
	var interval uint32
	if err := binary.Read(r, binary.LittleEndian, &interval); err != nil {
		return Index{}, fmt.Errorf("%w: read interval field: %w", ErrFormat, err)
	}
	if interval == 0 {
		interval = defaultInterval
	}

	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return Index{}, fmt.Errorf("seek index table: %w", err)
	}

	var offsets []uint32
	record := make([]byte, 8)
	for i := 0; ; i++ {
		if i >= maxIndexEntries {
			return Index{}, fmt.Errorf("%w: no sentinel entry within %d records", ErrFormat, maxIndexEntries)
		}
		if _, err := io.ReadFull(r, record); err != nil {
			return Index{}, fmt.Errorf("%w: index table truncated: %w", ErrFormat, err)
		}
		timestamp := binary.LittleEndian.Uint32(record[0:4])
		offset := binary.LittleEndian.Uint32(record[4:8])
		if n := len(offsets); n > 0 && offset < offsets[n-1] {
			return Index{}, fmt.Errorf("%w: offset %d precedes %d", ErrFormat, offset, offsets[n-1])
		}
		offsets = append(offsets, offset)
		if timestamp == sentinelTimestamp {
			break
		}
	}

	return Index{Interval: interval, Offsets: offsets}, nil
}
