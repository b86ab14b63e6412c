package logengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
)

type fakeValidator struct {
	known map[string]bool
}

func (v fakeValidator) Exists(service string) bool { return v.known[service] }

func newTestFacade(t *testing.T, services ...string) (*Facade, string) {
	t.Helper()
	root := t.TempDir()
	known := make(map[string]bool, len(services))
	for _, svc := range services {
		known[svc] = true
		if err := os.MkdirAll(filepath.Join(root, svc, "logs"), 0o755); err != nil {
			t.Fatalf("mkdir service dir: %v", err)
		}
	}
	facade := NewFacade(root, mustCodec(), fakeValidator{known: known}, 0)
	return facade, root
}

func TestFacade_ListLogFiles_UnknownService(t *testing.T) {
	facade, _ := newTestFacade(t, "web")
	if _, err := facade.ListLogFiles("ghost"); fleeterr.KindOf(err) != fleeterr.KindValidation {
		t.Fatalf("expected a validation error for an unknown service, got %v", err)
	}
}

func TestFacade_ListLogFiles_SkipsSidecars(t *testing.T) {
	facade, root := newTestFacade(t, "web")
	logsDir := filepath.Join(root, "web", "logs")
	if err := os.WriteFile(filepath.Join(logsDir, "service.log"), []byte(line1), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := os.WriteFile(filepath.Join(logsDir, "service.log.timecache"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	names, err := facade.ListLogFiles("web")
	if err != nil {
		t.Fatalf("ListLogFiles: %v", err)
	}
	if len(names) != 1 || names[0] != "service.log" {
		t.Fatalf("expected only service.log, got %v", names)
	}
}

func TestFacade_ResolvePath_RejectsTraversal(t *testing.T) {
	facade, root := newTestFacade(t, "web")
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cases := []string{"../secret.txt", "a/b.log", "", "a\\b.log"}
	for _, file := range cases {
		if _, err := facade.resolvePath("web", file); fleeterr.KindOf(err) != fleeterr.KindValidation {
			t.Errorf("resolvePath(%q) = %v, want a validation error", file, err)
		}
	}
}

func TestFacade_ReadLinesAndTimeRange(t *testing.T) {
	facade, root := newTestFacade(t, "web")
	logPath := filepath.Join(root, "web", "logs", "service.log")
	if err := os.WriteFile(logPath, []byte(line1+line2+line3), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := facade.ReadLines(context.Background(), "web", "service.log", 0, 2)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	tr, err := facade.GetTimeRange("web", "service.log")
	if err != nil {
		t.Fatalf("GetTimeRange: %v", err)
	}
	if tr.Start == nil || tr.End == nil {
		t.Fatalf("expected a resolved time range, got %+v", tr)
	}
}

func TestFacade_ReadTimeRange_UnparseableTime(t *testing.T) {
	facade, root := newTestFacade(t, "web")
	logPath := filepath.Join(root, "web", "logs", "service.log")
	if err := os.WriteFile(logPath, []byte(line1), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	junk := "not a timestamp"
	if _, err := facade.ReadTimeRange(context.Background(), "web", "service.log", &junk, nil, -1, 0, ""); fleeterr.KindOf(err) != fleeterr.KindValidation {
		t.Fatalf("expected a validation error for an unparseable time, got %v", err)
	}
}

func TestFacade_Histogram(t *testing.T) {
	facade, root := newTestFacade(t, "web")
	logPath := filepath.Join(root, "web", "logs", "service.log")
	if err := os.WriteFile(logPath, []byte(line1+line2), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	start := mustParse(t, mustCodec(), line1)
	end := mustParse(t, mustCodec(), line2)

	points, err := facade.Histogram(context.Background(), "web", "service.log", start, end, 1000*60, "")
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected at least one bucket")
	}
}
