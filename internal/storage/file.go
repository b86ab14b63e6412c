// Package storage opens monitored-service log files for random-access
// reads, transparently decompressing rotated gzip files. Grounded on the
// teacher's storage.ColumnReader (header/footer sniffing, windowed reads)
// repurposed from a custom binary format onto plain/gzip text logs.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// File is a random-access handle onto a log file's bytes, independent of
// whether the underlying file is a plain active log or a gzip-compressed
// rotated snapshot.
type File interface {
	ReadAt(p []byte, off int64) (int, error)
	Size() int64
	Path() string
	Close() error
}

// Open returns a File for path. ".gz" files are decompressed once, fully,
// into an in-memory buffer (no size limit), which is safe because rotated files are
// immutable once closed (spec §3). Plain files are read directly through
// the OS so active files observe appends made after Open.
func Open(path string) (File, error) {
	if strings.HasSuffix(path, ".gz") {
		return openGzip(path)
	}
	return openPlain(path)
}

type plainFile struct {
	f *os.File
}

func openPlain(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &plainFile{f: f}, nil
}

func (p *plainFile) ReadAt(buf []byte, off int64) (int, error) { return p.f.ReadAt(buf, off) }

func (p *plainFile) Size() int64 {
	info, err := p.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (p *plainFile) Path() string { return p.f.Name() }
func (p *plainFile) Close() error { return p.f.Close() }

type gzipFile struct {
	path string
	data []byte
}

var gzipCache sync.Map // path -> *gzipFile, rotated files are immutable

func openGzip(path string) (File, error) {
	if cached, ok := gzipCache.Load(path); ok {
		return cached.(*gzipFile), nil
	}

	raw, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	zr, err := gzip.NewReader(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", path, err)
	}

	gf := &gzipFile{path: path, data: data}
	gzipCache.Store(path, gf)
	return gf, nil
}

func (g *gzipFile) ReadAt(buf []byte, off int64) (int, error) {
	if off >= int64(len(g.data)) {
		return 0, io.EOF
	}
	n := copy(buf, g.data[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (g *gzipFile) Size() int64  { return int64(len(g.data)) }
func (g *gzipFile) Path() string { return g.path }
func (g *gzipFile) Close() error { return nil }

// ReadWindow reads up to len(buf) bytes starting at off, returning the
// number of bytes actually available (may be less than len(buf) near EOF).
func ReadWindow(f File, off int64, buf []byte) int {
	if off < 0 || off >= f.Size() {
		return 0
	}
	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return 0
	}
	return n
}

// HeaderSignature returns the raw first n bytes of f (fewer if the file is
// shorter); C6 hex-encodes them to detect rewrite-in-place.
func HeaderSignature(f File, n int) []byte {
	buf := make([]byte, n)
	got := ReadWindow(f, 0, buf)
	return bytes.Clone(buf[:got])
}
