package logengine

import (
	"encoding/hex"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/metrics"
	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

const (
	startScanLimit  = 50 * 1024
	endScanChunk    = 10 * 1024
	endScanMaxTotal = 100 * 1024
	headerSigLen    = 64
)

// TimeRange is the public (start,end) result of C6 (null is represented by
// a nil pointer, matching spec §4.6: both are legitimate values).
type TimeRange struct {
	Start *int64 `json:"start"`
	End   *int64 `json:"end"`
}

// cacheEntry is the on-disk sidecar shape (spec §3).
type cacheEntry struct {
	Start     *int64 `json:"start"`
	End       *int64 `json:"end"`
	Size      int64  `json:"size"`
	Inode     uint64 `json:"inode"`
	HeaderSig string `json:"headerSig"`
}

// IsActiveLogName reports whether name is an active (growable) log file,
// as opposed to a rotated (immutable) snapshot (spec §3).
func IsActiveLogName(name string) bool {
	trimmed := strings.TrimSuffix(name, ".gz")
	return strings.HasSuffix(trimmed, ".log")
}

// SidecarPath returns the cache-entry path for a log file (spec §6).
func SidecarPath(logPath string) string {
	return logPath + ".timecache"
}

// GetTimeRange implements C6: return (start,end) for path, consulting and
// maintaining the persistent sidecar per the decision table in spec §4.6.
func GetTimeRange(path string, codec *timestamp.Codec) (TimeRange, error) {
	f, err := storage.Open(path)
	if err != nil {
		return TimeRange{}, err
	}
	defer f.Close()

	active := IsActiveLogName(path)
	identity, identityOK := storage.Stat(path)
	headerSig := hex.EncodeToString(storage.HeaderSignature(f, headerSigLen))
	sidecarPath := SidecarPath(path)

	var cached cacheEntry
	cacheErr := storage.ReadJSON(sidecarPath, &cached)
	haveCache := cacheErr == nil

	recomputeBoth := func() (TimeRange, error) {
		metrics.TimeRangeCacheMissTotal.Inc()
		tr := recomputeFull(f, codec)
		persist(sidecarPath, tr, active, identity, headerSig)
		return tr, nil
	}

	if !haveCache {
		return recomputeBoth()
	}

	if !active && cached.Start != nil && cached.End != nil {
		metrics.TimeRangeCacheHitTotal.Inc()
		return TimeRange{Start: cached.Start, End: cached.End}, nil
	}

	if active {
		if identityOK && cached.Inode != identity.Inode {
			return recomputeBoth()
		}
		if identityOK && identity.Size < cached.Size {
			return recomputeBoth()
		}
		if cached.HeaderSig != headerSig {
			return recomputeBoth()
		}
		if identityOK && identity.Size > cached.Size {
			metrics.TimeRangeCacheMissTotal.Inc()
			end, hasEnd := scanEndBackward(f, codec)
			tr := TimeRange{Start: cached.Start}
			if hasEnd {
				tr.End = &end
			}
			persist(sidecarPath, tr, active, identity, headerSig)
			return tr, nil
		}
		// Identity unchanged, size equal: return cache as-is.
		metrics.TimeRangeCacheHitTotal.Inc()
		return TimeRange{Start: cached.Start, End: cached.End}, nil
	}

	// Rotated file with an incomplete cache entry (missing start or end):
	// recompute both, since rotated files are immutable and should only
	// ever need computing once.
	return recomputeBoth()
}

func recomputeFull(f storage.File, codec *timestamp.Codec) TimeRange {
	tr := TimeRange{}
	if start, ok := scanStartForward(f, codec); ok {
		tr.Start = &start
	}
	if end, ok := scanEndBackward(f, codec); ok {
		tr.End = &end
	}
	return tr
}

func persist(sidecarPath string, tr TimeRange, active bool, identity storage.Identity, headerSig string) {
	entry := cacheEntry{
		Start:     tr.Start,
		End:       tr.End,
		Size:      identity.Size,
		Inode:     identity.Inode,
		HeaderSig: headerSig,
	}
	// Best-effort: a failed cache write degrades to "recompute every time",
	// not a failed query.
	_ = storage.WriteJSONAtomic(sidecarPath, entry)
}

func scanStartForward(f storage.File, codec *timestamp.Codec) (int64, bool) {
	size := f.Size()
	limit := int64(startScanLimit)
	if limit > size {
		limit = size
	}
	buf := make([]byte, limit)
	n := storage.ReadWindow(f, 0, buf)
	for _, line := range strings.Split(string(buf[:n]), "\n") {
		if ts, ok := codec.ParseLeading(line); ok {
			return ts, true
		}
	}
	return 0, false
}

func scanEndBackward(f storage.File, codec *timestamp.Codec) (int64, bool) {
	size := f.Size()
	for total := int64(endScanChunk); total <= endScanMaxTotal; total += endScanChunk {
		start := size - total
		if start < 0 {
			start = 0
		}
		buf := make([]byte, size-start)
		n := storage.ReadWindow(f, start, buf)
		lines := strings.Split(string(buf[:n]), "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if ts, ok := codec.ParseLeading(lines[i]); ok {
				return ts, true
			}
		}
		if start == 0 {
			break
		}
	}
	return 0, false
}
