// Package services tracks the set of service directories under the
// configured root and their last-known power status.
package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Service is one entry in the enumerator: a directory name under root plus
// the status last observed by a poll.
type Service struct {
	Name         string `json:"name"`
	Status       string `json:"status"` // "Up" or "Down"
	LastPolledAt int64  `json:"lastPolledAt"`
}

// Enumerator is the process-wide registry of known services, rebuilt by
// periodic directory rescans and updated by on-demand status polls.
type Enumerator struct {
	root string

	mu       sync.RWMutex
	services map[string]*Service
}

// New builds an enumerator rooted at root (one subdirectory per service).
func New(root string) *Enumerator {
	return &Enumerator{root: root, services: make(map[string]*Service)}
}

// Rescan walks root's immediate subdirectories and reconciles the service
// set, preserving any already-known status for names that survive.
func (e *Enumerator) Rescan() error {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			e.mu.Lock()
			e.services = make(map[string]*Service)
			e.mu.Unlock()
			return nil
		}
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		seen[name] = true
		if _, ok := e.services[name]; !ok {
			e.services[name] = &Service{Name: name, Status: "Down"}
		}
	}
	for name := range e.services {
		if !seen[name] {
			delete(e.services, name)
		}
	}
	return nil
}

// Exists reports whether name is a known service (spec §6's enumerator
// validation, consumed by logengine.Facade through the ServiceValidator
// interface).
func (e *Enumerator) Exists(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.services[name]
	return ok
}

// List returns a snapshot of all known services in no particular order
// (callers that need a stable order should sort the result).
func (e *Enumerator) List() []Service {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Service, 0, len(e.services))
	for _, svc := range e.services {
		out = append(out, *svc)
	}
	return out
}

// Get returns one service's last-known status.
func (e *Enumerator) Get(name string) (Service, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	svc, ok := e.services[name]
	if !ok {
		return Service{}, false
	}
	return *svc, true
}

// SetStatus records a freshly polled status for name, if it is known.
func (e *Enumerator) SetStatus(name, status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if svc, ok := e.services[name]; ok {
		svc.Status = status
		svc.LastPolledAt = time.Now().Unix()
	}
}

// ServiceDir returns root joined with name; it does not check that name is
// a known service.
func (e *Enumerator) ServiceDir(name string) string {
	return filepath.Join(e.root, name)
}

// StartRescanLoop periodically rescans root until ctx is cancelled,
// mirroring the teacher's heartbeat-registry cleanup loop with a directory
// walk standing in for the SDK handshake.
func (e *Enumerator) StartRescanLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = e.Rescan()
			case <-ctx.Done():
				return
			}
		}
	}()
}
