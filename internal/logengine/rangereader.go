package logengine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

// RangeResult is the outcome of a time-range read (C4).
type RangeResult struct {
	Lines []string
	Total int
}

// ReadRange implements C4: resolve [from,to] to a byte range via C3, read it
// in one call, filter by substring, and paginate. ctx is checked at every
// I/O suspension point (the binary searches and the bulk read); a
// cancellation yields fleeterr.Cancelled and no partial result (spec §5).
func ReadRange(ctx context.Context, f storage.File, codec *timestamp.Codec, from, to *int64, limit, offset int, substring string, softCapBytes int64) (RangeResult, error) {
	size := f.Size()

	var startOffset int64
	if from != nil {
		var err error
		startOffset, err = FindOffsetByTime(ctx, f, codec, *from, LowerBound, 0)
		if err != nil {
			return RangeResult{}, err
		}
	}

	endOffset := size
	if to != nil {
		var err error
		endOffset, err = FindOffsetByTime(ctx, f, codec, *to+1, LowerBound, startOffset)
		if err != nil {
			return RangeResult{}, err
		}
	}

	if endOffset <= startOffset {
		return RangeResult{}, nil
	}

	if softCapBytes > 0 && endOffset-startOffset > softCapBytes {
		return RangeResult{}, fleeterr.New(fleeterr.KindTruncatedByCap, "ReadRange",
			fmt.Errorf("range %d bytes exceeds soft cap %d bytes; narrow the time range", endOffset-startOffset, softCapBytes))
	}

	if ctx.Err() != nil {
		return RangeResult{}, fleeterr.Cancelled
	}

	buf := make([]byte, endOffset-startOffset)
	n, err := f.ReadAt(buf, startOffset)
	if err != nil && err != io.EOF {
		return RangeResult{}, fleeterr.NewPath(fleeterr.KindIO, "ReadRange", f.Path(), err)
	}

	retained := splitAndFilterLines(buf[:n], substring)
	total := len(retained)

	lo := offset
	if lo < 0 {
		lo = 0
	}
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if limit < 0 || hi > total {
		hi = total
	}

	return RangeResult{Lines: retained[lo:hi], Total: total}, nil
}

// splitAndFilterLines splits on '\n', drops an empty trailing segment and
// whitespace-only lines, then applies the case-sensitive substring filter.
func splitAndFilterLines(buf []byte, substring string) []string {
	parts := strings.Split(string(buf), "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	retained := make([]string, 0, len(parts))
	for _, line := range parts {
		if isBlank(line) {
			continue
		}
		if substring != "" && !strings.Contains(line, substring) {
			continue
		}
		retained = append(retained, line)
	}
	return retained
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
