package bif

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// ExtractFrames writes each indexed frame into dir as <index>.jpg and returns
// the written paths in frame order. Frames are assumed physically contiguous,
// so the stream is positioned once at the first frame and read sequentially.
// A stream shorter than the computed ranges yields an I/O error; callers treat
// that as a per-candidate failure.
func ExtractFrames(r io.ReadSeeker, idx Index, dir string) ([]string, error) {
	count := idx.FrameCount()
	if count == 0 {
		return nil, nil
	}

	if _, err := r.Seek(int64(idx.Offsets[0]), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek first frame: %w", err)
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		length := int64(idx.Offsets[i+1]) - int64(idx.Offsets[i])
		path := filepath.Join(dir, strconv.Itoa(i)+".jpg")
		if err := writeFrame(r, path, length); err != nil {
			return nil, fmt.Errorf("extract frame %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFrame(r io.Reader, path string, length int64) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.CopyN(out, r, length)
	if err != nil {
		return fmt.Errorf("read %d of %d bytes: %w", written, length, err)
	}
	return out.Close()
}
