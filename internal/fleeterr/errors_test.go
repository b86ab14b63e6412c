package fleeterr

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewPath_RedactsConfiguredRoot(t *testing.T) {
	SetRedactionRoot("/srv/services")
	defer SetRedactionRoot("")

	e := NewPath(KindIO, "ReadRange", "/srv/services/web/logs/service.log", errors.New("boom"))
	want := filepath.Join("web", "logs", "service.log")
	if e.Path != want {
		t.Fatalf("Path = %q, want %q", e.Path, want)
	}
	if got := e.Error(); got == "" {
		t.Fatal("expected a non-empty error string")
	}
}

func TestNewPath_LeavesPathUntouchedWithoutRedactionRoot(t *testing.T) {
	SetRedactionRoot("")

	e := NewPath(KindIO, "ReadRange", "/srv/services/web/logs/service.log", errors.New("boom"))
	if e.Path != "/srv/services/web/logs/service.log" {
		t.Fatalf("expected the raw path when no root is configured, got %q", e.Path)
	}
}

func TestNewPath_PathOutsideRootFallsBackToRawPath(t *testing.T) {
	SetRedactionRoot("/srv/services")
	defer SetRedactionRoot("")

	// A path that isn't under the configured root (shouldn't normally occur,
	// since resolvePath confines everything to root) falls back to the raw
	// path rather than producing a nonsensical "../../etc/passwd" relative
	// form.
	e := NewPath(KindIO, "compose.Read", "/etc/passwd", errors.New("boom"))
	if e.Path != "/etc/passwd" {
		t.Fatalf("expected the original path back for something outside root, got %q", e.Path)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(Validation("op", "bad")) != KindValidation {
		t.Fatal("expected KindValidation")
	}
	if KindOf(errors.New("opaque")) != KindIO {
		t.Fatal("expected opaque errors to default to KindIO")
	}
	if KindOf(Cancelled) != KindCancelled {
		t.Fatal("expected KindCancelled for the Cancelled sentinel")
	}
}
