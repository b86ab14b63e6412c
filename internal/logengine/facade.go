package logengine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/storage"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

// ServiceValidator is the facade's one dependency on the service enumerator
// (spec §6 collaborator): it only needs to know whether a name is a known
// service, not how the enumerator discovers or polls it.
type ServiceValidator interface {
	Exists(service string) bool
}

// Facade is C8: the single entry point composing C1-C7 behind operations
// keyed by (service, file) rather than raw paths.
type Facade struct {
	root         string
	codec        *timestamp.Codec
	validator    ServiceValidator
	softCapBytes int64
}

// NewFacade builds the engine root. root is the directory containing one
// subdirectory per service; softCapBytes bounds a single readTimeRange's
// materialized byte range (0 disables the cap).
func NewFacade(root string, codec *timestamp.Codec, validator ServiceValidator, softCapBytes int64) *Facade {
	return &Facade{root: root, codec: codec, validator: validator, softCapBytes: softCapBytes}
}

func (e *Facade) resolvePath(service, file string) (string, error) {
	if !e.validator.Exists(service) {
		return "", fleeterr.Validation("resolvePath", "unknown service %q", service)
	}
	if file == "" || strings.ContainsAny(file, "/\\") || strings.Contains(file, "..") {
		return "", fleeterr.Validation("resolvePath", "invalid log file name %q", file)
	}
	return filepath.Join(e.root, service, "logs", file), nil
}

// ListLogFiles implements listLogFiles(service) → [name], filtering out
// cache sidecars and subdirectories; every other directory entry is listed.
func (e *Facade) ListLogFiles(service string) ([]string, error) {
	if !e.validator.Exists(service) {
		return nil, fleeterr.Validation("ListLogFiles", "unknown service %q", service)
	}
	dir := filepath.Join(e.root, service, "logs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fleeterr.NewPath(fleeterr.KindIO, "ListLogFiles", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".timecache") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ReadLines implements readLines(service, file, startLine, numLines) → [line].
// ctx cancellation is honored at every I/O suspension point in the
// underlying read (spec §5).
func (e *Facade) ReadLines(ctx context.Context, service, file string, startLine, numLines int) ([]string, error) {
	path, err := e.resolvePath(service, file)
	if err != nil {
		return nil, err
	}
	f, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(ctx, f, startLine, numLines)
}

// ReadTimeRange implements readTimeRange(service, file, from, to, limit,
// offset, substring) → {lines, total}. from/to are request-time strings
// (either locale or ISO-8601 form, per C1); nil means unbounded. ctx
// cancellation is honored at every I/O suspension point (spec §5).
func (e *Facade) ReadTimeRange(ctx context.Context, service, file string, from, to *string, limit, offset int, substring string) (RangeResult, error) {
	path, err := e.resolvePath(service, file)
	if err != nil {
		return RangeResult{}, err
	}

	fromTs, err := e.normalizeTime(from)
	if err != nil {
		return RangeResult{}, err
	}
	toTs, err := e.normalizeTime(to)
	if err != nil {
		return RangeResult{}, err
	}

	f, err := storage.Open(path)
	if err != nil {
		return RangeResult{}, err
	}
	defer f.Close()

	return ReadRange(ctx, f, e.codec, fromTs, toTs, limit, offset, substring, e.softCapBytes)
}

// GetTimeRange implements getTimeRange(service, file) → {start, end}.
func (e *Facade) GetTimeRange(service, file string) (TimeRange, error) {
	path, err := e.resolvePath(service, file)
	if err != nil {
		return TimeRange{}, err
	}
	return GetTimeRange(path, e.codec)
}

// Follow implements follow(service, file, filter, sink) → cancel, except
// the sink/cancel pairing is expressed as a Subscription whose Close is
// the cancel handle (spec §7's "capability over {onLine, onClose}" made
// concrete as a channel plus a close func).
func (e *Facade) Follow(service, file, substring string, queueSize int) (*Subscription, error) {
	path, err := e.resolvePath(service, file)
	if err != nil {
		return nil, err
	}
	return Follow(path, substring, queueSize)
}

// Histogram buckets readTimeRange's line counts over [from,to] by interval
// (spec §10.4 supplement).
func (e *Facade) Histogram(ctx context.Context, service, file string, from, to, interval int64, substring string) ([]HistogramPoint, error) {
	path, err := e.resolvePath(service, file)
	if err != nil {
		return nil, err
	}
	f, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ComputeHistogram(ctx, f, e.codec, from, to, interval, substring)
}

func (e *Facade) normalizeTime(s *string) (*int64, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	ts, err := e.codec.ParseRequestTime(*s)
	if err != nil {
		return nil, fleeterr.Validation("normalizeTime", "unparseable time %q: %v", *s, err)
	}
	return &ts, nil
}
