package logengine

import (
	"context"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/metrics"
	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

// Mode selects which boundary findOffsetByTime resolves.
type Mode int

const (
	// LowerBound resolves the offset of the first line with timestamp >= target.
	LowerBound Mode = iota
	// UpperBound resolves the offset of the first line with timestamp > target.
	UpperBound
)

// FindOffsetByTime performs C3's binary search over file bytes: it returns
// the byte offset such that every complete line starting at or after the
// offset has a timestamp satisfying mode relative to target, or size if no
// such line exists. minOffset restricts the search to [minOffset, size).
//
// Correctness depends on timestamps being monotonically non-decreasing
// along the file (spec invariant); when that does not hold the result is
// best-effort (it satisfies the predicate at the returned line but may miss
// an earlier match). ctx is checked at every step (spec §5: cancelable at
// every I/O suspension point), returning fleeterr.Cancelled with no partial
// result rather than completing the search.
func FindOffsetByTime(ctx context.Context, f storage.File, codec *timestamp.Codec, target int64, mode Mode, minOffset int64) (int64, error) {
	size := f.Size()
	lo, hi := minOffset, size
	if lo < 0 {
		lo = 0
	}
	if lo >= hi {
		return size, nil
	}

	candidate := int64(-1)

	for lo < hi {
		if ctx.Err() != nil {
			return 0, fleeterr.Cancelled
		}
		metrics.BinarySearchStepsTotal.Inc()
		mid := lo + (hi-lo)/2

		pivot := Locate(f, codec, mid)
		ts, hasTS, effective := pivot.Timestamp, pivot.HasTS, pivot.LineStart

		if !hasTS {
			recoveredTS, recoveredAt, ok := ScanForward(f, codec, pivot.LineStart, hi)
			if !ok {
				hi = mid
				continue
			}
			ts, hasTS, effective = recoveredTS, true, recoveredAt
		}

		if satisfies(ts, target, mode) {
			candidate = effective
			hi = mid
		} else {
			next := mid + 1
			if pivot.LineStart > next {
				next = pivot.LineStart
			}
			lo = next
		}
	}

	if candidate >= 0 {
		return candidate, nil
	}
	return size, nil
}

func satisfies(ts, target int64, mode Mode) bool {
	if mode == UpperBound {
		return ts > target
	}
	return ts >= target
}
