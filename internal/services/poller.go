package services

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// PollStatus shells out to `docker compose ps` inside the service's
// directory and classifies the result as "Up" or "Down", the question
// spec §6's GET /api/services/:name/status answers. It updates the
// enumerator's cached status before returning it.
func (e *Enumerator) PollStatus(ctx context.Context, name string) (string, error) {
	dir := e.ServiceDir(name)

	cmd := exec.CommandContext(ctx, "docker", "compose", "ps", "--status", "running", "--format", "json")
	cmd.Dir = dir

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	status := "Down"
	if err := cmd.Run(); err != nil {
		// A non-zero exit from `compose ps` against a stopped project is
		// normal, not an error worth surfacing; only a context cancellation
		// is.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	} else if strings.TrimSpace(stdout.String()) != "" {
		status = "Up"
	}

	e.SetStatus(name, status)
	return status, nil
}

// StartPollLoop periodically polls every known service's status until ctx
// is cancelled.
func (e *Enumerator) StartPollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, svc := range e.List() {
					_, _ = e.PollStatus(ctx, svc.Name)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
