package logengine

import (
	"context"
	"io"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/storage"
)

// ReadLines implements C5: read numLines lines starting from a signed line
// index. A negative startLine counts from the end of the file. The whole
// file is read into memory, deliberately (spec §4.5) — a reverse-chunk
// optimization for large negative starts is documented future work, not a
// contract (spec §9.2). ctx is checked before the read (its one I/O
// suspension point); a cancellation yields fleeterr.Cancelled and no
// partial result (spec §5).
func ReadLines(ctx context.Context, f storage.File, startLine, numLines int) ([]string, error) {
	if numLines <= 0 {
		return nil, fleeterr.Validation("ReadLines", "numLines must be > 0, got %d", numLines)
	}
	if ctx.Err() != nil {
		return nil, fleeterr.Cancelled
	}

	buf := make([]byte, f.Size())
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, fleeterr.NewPath(fleeterr.KindIO, "ReadLines", f.Path(), err)
	}

	lines := strings.Split(string(buf[:n]), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	total := len(lines)
	start := startLine
	if start < 0 {
		start = total + start
		if start < 0 {
			start = 0
		}
	}
	if start > total {
		start = total
	}

	end := start + numLines
	if end > total {
		end = total
	}

	return lines[start:end], nil
}
