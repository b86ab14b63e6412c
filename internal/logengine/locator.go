package logengine

import (
	"bytes"

	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

// locatorScanChunk bounds each forward scan-for-newline read (C2's "bounded
// window" read), and tsWindow bounds the second read used to extract the
// leading timestamp once a line start is known.
const (
	locatorScanChunk = 256
	tsWindow         = 40
)

// Pivot is the result of locating a line start: the byte offset the line
// begins at, and its leading timestamp if present.
type Pivot struct {
	LineStart int64
	Timestamp int64
	HasTS     bool
}

// Locate returns the start of the next line at or after p, and that line's
// leading timestamp if present (C2).
func Locate(f storage.File, codec *timestamp.Codec, p int64) Pivot {
	size := f.Size()
	lineStart := locateLineStart(f, p, size)
	ts, hasTS := readTimestampAt(f, codec, lineStart, size)
	return Pivot{LineStart: lineStart, Timestamp: ts, HasTS: hasTS}
}

// locateLineStart returns the smallest offset q >= p such that q == 0 or the
// byte at q-1 is '\n'.
func locateLineStart(f storage.File, p, size int64) int64 {
	if p <= 0 {
		return 0
	}
	if p >= size {
		return size
	}

	var prev [1]byte
	if n := storage.ReadWindow(f, p-1, prev[:]); n == 1 && prev[0] == '\n' {
		return p
	}

	buf := make([]byte, locatorScanChunk)
	pos := p
	for pos < size {
		n := storage.ReadWindow(f, pos, buf)
		if n == 0 {
			break
		}
		if idx := bytes.IndexByte(buf[:n], '\n'); idx >= 0 {
			return pos + int64(idx) + 1
		}
		pos += int64(n)
	}
	return size
}

func readTimestampAt(f storage.File, codec *timestamp.Codec, lineStart, size int64) (int64, bool) {
	if lineStart >= size {
		return 0, false
	}
	buf := make([]byte, tsWindow)
	n := storage.ReadWindow(f, lineStart, buf)
	if n == 0 {
		return 0, false
	}
	if idx := bytes.IndexByte(buf[:n], '\n'); idx >= 0 {
		buf = buf[:idx]
	} else {
		buf = buf[:n]
	}
	return codec.ParseLeading(string(buf))
}

// ScanForward scans line-by-line starting at "from" up to "ceiling" until a
// timestamped line is found, recovering C3's binary search from a pivot
// that landed on a continuation line. Bounded: it is never a linear
// fallback for the whole search.
func ScanForward(f storage.File, codec *timestamp.Codec, from, ceiling int64) (ts int64, at int64, ok bool) {
	pos := from
	for pos < ceiling {
		pivot := Locate(f, codec, pos)
		if pivot.LineStart >= ceiling {
			return 0, 0, false
		}
		if pivot.HasTS {
			return pivot.Timestamp, pivot.LineStart, true
		}
		// The line at pivot.LineStart has no timestamp; step one byte past
		// its start so the next Locate moves on to the following line.
		pos = pivot.LineStart + 1
	}
	return 0, 0, false
}
