// Package power executes container power actions (start/stop/restart/down)
// against a service's compose project, guarding against two actions racing
// on the same service.
package power

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/metrics"
)

// Action is one of the power verbs the HTTP boundary accepts (spec §6).
type Action string

const (
	Start   Action = "start"
	Stop    Action = "stop"
	Restart Action = "restart"
	Down    Action = "down"
)

// ParseAction validates a request-supplied action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Start, Stop, Restart, Down:
		return Action(s), nil
	default:
		return "", fleeterr.Validation("ParseAction", "unknown power action %q", s)
	}
}

func (a Action) composeArgs() []string {
	switch a {
	case Start:
		return []string{"up", "-d"}
	case Stop:
		return []string{"stop"}
	case Restart:
		return []string{"restart"}
	case Down:
		return []string{"down"}
	default:
		return nil
	}
}

// Guard allows at most one power action per service at a time (a second
// one is rejected, not queued): the process-wide in-flight set spec §7
// requires, released on every exit path (including a panic
// recovered by the caller's own middleware, since release happens in a
// defer here).
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewGuard builds an empty in-flight registry.
func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]bool)}
}

func (g *Guard) tryAcquire(service string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[service] {
		return false
	}
	g.inFlight[service] = true
	return true
}

func (g *Guard) release(service string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, service)
}

// Execute runs `docker compose <verb>` inside dir for the given action,
// rejecting the call outright if an action is already in flight for the
// same service.
func (g *Guard) Execute(ctx context.Context, dir, service string, action Action) error {
	if !g.tryAcquire(service) {
		return fleeterr.Validation("Execute", "a power action is already in progress for %q", service)
	}
	defer g.release(service)

	args := action.composeArgs()
	if args == nil {
		return fleeterr.Validation("Execute", "unknown power action %q", action)
	}

	cmd := exec.CommandContext(ctx, "docker", append([]string{"compose"}, args...)...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		metrics.PowerActionsTotal.WithLabelValues(string(action), "error").Inc()
		return fleeterr.New(fleeterr.KindIO, "Execute",
			fmt.Errorf("docker compose %s for %q: %w: %s", action, service, err, out))
	}
	metrics.PowerActionsTotal.WithLabelValues(string(action), "ok").Inc()
	return nil
}

// InFlight reports whether an action is currently executing for service,
// for status reporting without racing Execute's own guard.
func (g *Guard) InFlight(service string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[service]
}
