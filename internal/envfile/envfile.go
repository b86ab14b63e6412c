// Package envfile reads and writes a service's `.env` file, one KEY=VALUE
// pair per line, adapted from the teacher's metadata Store Load/Save shape
// with the encryption and user/token bookkeeping dropped (spec §6: a plain
// environment file is all this console manages).
package envfile

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fleetdeck/fleetdeck/internal/storage"
)

// fileLine is one line of the on-disk file. A KV line carries its key so
// saveLocked can substitute the current value in place; anything else
// (comments, blank lines, lines that don't parse as KEY=VALUE) is kept
// verbatim in raw so a round trip doesn't reshuffle or drop it.
type fileLine struct {
	key string
	raw string
}

// Store manages one service's .env file. It preserves the file's original
// line order, comments, and blank lines across a Load/Set/Save cycle; only
// the values of known keys change, and newly Set keys are appended in the
// order they were set.
type Store struct {
	path string
	mu   sync.RWMutex

	vars      map[string]string
	lines     []fileLine
	entryKeys map[string]bool
	newKeys   []string
}

// NewStore builds a Store over path, which need not exist yet.
func NewStore(path string) *Store {
	return &Store{
		path:      path,
		vars:      make(map[string]string),
		entryKeys: make(map[string]bool),
	}
}

// Load reads path into memory, replacing the in-memory set and the
// remembered line structure. A missing file is not an error; it loads as
// empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.vars = make(map[string]string)
			s.lines = nil
			s.entryKeys = make(map[string]bool)
			s.newKeys = nil
			return nil
		}
		return err
	}
	defer f.Close()

	vars := make(map[string]string)
	entryKeys := make(map[string]bool)
	var lines []fileLine

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := scanner.Text()
		key, value, ok := parseLine(text)
		if ok {
			lines = append(lines, fileLine{key: key})
			vars[key] = value
			entryKeys[key] = true
		} else {
			lines = append(lines, fileLine{raw: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	s.vars = vars
	s.lines = lines
	s.entryKeys = entryKeys
	s.newKeys = nil
	return nil
}

// Save writes the current in-memory set back to path atomically, preserving
// the original file's comments, blank lines, and key order; keys set since
// the last Load are appended in the order they were set.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	var b strings.Builder
	written := make(map[string]bool, len(s.vars))

	for _, line := range s.lines {
		if line.key == "" {
			b.WriteString(line.raw)
			b.WriteByte('\n')
			continue
		}
		value, ok := s.vars[line.key]
		if !ok {
			// Deleted since Load; drop the line.
			continue
		}
		writeVar(&b, line.key, value)
		written[line.key] = true
	}

	for _, key := range s.newKeys {
		if written[key] {
			continue
		}
		value, ok := s.vars[key]
		if !ok {
			continue
		}
		writeVar(&b, key, value)
		written[key] = true
	}

	return storage.WriteFileAtomic(s.path, []byte(b.String()))
}

func writeVar(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}

// All returns a copy of every KEY=VALUE pair.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Set stages a key's value in memory; call Save to persist. A key not
// already backed by a line in the loaded file is appended, in the order it
// was first set, on the next Save.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[key] = value
	if !s.entryKeys[key] && !containsString(s.newKeys, key) {
		s.newKeys = append(s.newKeys, key)
	}
}

// Delete removes a key from memory; call Save to persist. If the key came
// from the loaded file, its line is dropped on the next Save rather than
// left behind with a stale value.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, key)
}

// ReplaceAll stages a full replacement set in memory; call Save to persist.
// Keys already backed by a line in the loaded file keep their position;
// everything else is appended in sorted order, since a map carries no
// ordering of its own.
func (s *Store) ReplaceAll(vars map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars = make(map[string]string, len(vars))
	for k, v := range vars {
		s.vars[k] = v
	}

	s.newKeys = nil
	var fresh []string
	for k := range vars {
		if !s.entryKeys[k] {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	s.newKeys = fresh
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	idx := strings.IndexByte(trimmed, '=')
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(trimmed[:idx]), strings.TrimSpace(trimmed[idx+1:]), true
}
