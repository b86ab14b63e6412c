package logengine

import (
	"context"
	"sort"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

// HistogramPoint is one time bucket's line count.
type HistogramPoint struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// ComputeHistogram buckets the lines in [start,end] by interval, optionally
// restricted to lines containing substring. It is not index-backed: every
// call resolves the byte range via C3 and rescans it, the same cost as a
// ReadRange over the same window.
func ComputeHistogram(ctx context.Context, f storage.File, codec *timestamp.Codec, start, end, interval int64, substring string) ([]HistogramPoint, error) {
	if interval <= 0 {
		interval = 1
	}

	startOffset, err := FindOffsetByTime(ctx, f, codec, start, LowerBound, 0)
	if err != nil {
		return nil, err
	}
	endOffset, err := FindOffsetByTime(ctx, f, codec, end+1, LowerBound, startOffset)
	if err != nil {
		return nil, err
	}
	if endOffset <= startOffset {
		return nil, nil
	}

	buf := make([]byte, endOffset-startOffset)
	n, err := f.ReadAt(buf, startOffset)
	if err != nil && n == 0 {
		return nil, err
	}

	buckets := make(map[int64]int)
	currentTs := start
	for _, line := range strings.Split(string(buf[:n]), "\n") {
		if isBlank(line) {
			continue
		}
		if ts, ok := codec.ParseLeading(line); ok {
			currentTs = ts
		}
		if currentTs < start || currentTs > end {
			continue
		}
		if substring != "" && !strings.Contains(line, substring) {
			continue
		}
		bucket := (currentTs / interval) * interval
		buckets[bucket]++
	}

	points := make([]HistogramPoint, 0, len(buckets))
	for t, c := range buckets {
		points = append(points, HistogramPoint{Time: t, Count: c})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })

	return points, nil
}
