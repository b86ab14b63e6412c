package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdeck/fleetdeck/internal/compose"
	"github.com/fleetdeck/fleetdeck/internal/envfile"
	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/logengine"
	"github.com/fleetdeck/fleetdeck/internal/power"
	"github.com/fleetdeck/fleetdeck/internal/services"
	"github.com/fleetdeck/fleetdeck/internal/timestamp"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "web", "logs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	enumerator := services.New(root)
	if err := enumerator.Rescan(); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	codec := timestamp.New(time.UTC)
	facade := logengine.NewFacade(root, codec, enumerator, 0)
	guard := power.NewGuard()

	s := New(root, facade, enumerator, guard, zap.NewNop().Sugar())
	return s, root
}

func TestHandleListServices(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	w := httptest.NewRecorder()
	s.handleListServices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var names []string
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 1 || names[0] != "web" {
		t.Fatalf("expected [web], got %v", names)
	}
}

func TestHandleServiceStatus_UnknownService(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services/ghost/status", nil)
	req.SetPathValue("name", "ghost")
	w := httptest.NewRecorder()
	s.handleServiceStatus(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown service, got %d", w.Code)
	}
}

func TestHandlePower_RejectsUnknownAction(t *testing.T) {
	s, _ := newTestServer(t)

	body := strings.NewReader(`{"action":"levitate"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/services/web/power", body)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handlePower(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown action, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleLogFilesAndRead(t *testing.T) {
	s, root := newTestServer(t)
	logPath := filepath.Join(root, "web", "logs", "service.log")
	contents := "1/2/2024, 1:00:00 AM first\n1/2/2024, 1:00:05 AM second\n"
	if err := os.WriteFile(logPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/services/web/logs/files", nil)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleLogFiles(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var files []string
	if err := json.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(files) != 1 || files[0] != "service.log" {
		t.Fatalf("expected [service.log], got %v", files)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/services/web/logs/read?file=service.log&start=0&num=1", nil)
	req2.SetPathValue("name", "web")
	w2 := httptest.NewRecorder()
	s.handleLogRead(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	var lines []string
	if err := json.Unmarshal(w2.Body.Bytes(), &lines); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "first") {
		t.Fatalf("expected the first line, got %v", lines)
	}
}

func TestHandleLogRead_MissingFile(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/services/web/logs/read", nil)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleLogRead(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing file param, got %d", w.Code)
	}
}

func TestHandleLogSearch(t *testing.T) {
	s, root := newTestServer(t)
	logPath := filepath.Join(root, "web", "logs", "service.log")
	contents := "1/2/2024, 1:00:00 AM keep\n1/2/2024, 1:00:05 AM skip\n"
	if err := os.WriteFile(logPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	body := strings.NewReader(`{"file":"service.log","search":"keep"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/services/web/logs/search", body)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleLogSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Lines []string `json:"lines"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Lines) != 1 {
		t.Fatalf("expected exactly one match, got %+v", resp)
	}
}

func TestHandleHistogram(t *testing.T) {
	s, root := newTestServer(t)
	logPath := filepath.Join(root, "web", "logs", "service.log")
	contents := "1/2/2024, 1:00:00 AM a\n1/2/2024, 1:00:05 AM b\n"
	if err := os.WriteFile(logPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/services/web/logs/histogram?file=service.log&from=0&to=9999999999999&interval=60000", nil)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleHistogram(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleConfigAndConfigData(t *testing.T) {
	s, root := newTestServer(t)
	composePath := filepath.Join(root, "web", "docker-compose.yml")
	if err := compose.Generate(composePath, compose.ServiceDefinition{
		Name: "web", Image: "nginx:latest", Version: compose.Version{Major: 1, Minor: 0},
	}); err != nil {
		t.Fatalf("compose.Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/services/web/config", nil)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleConfig(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"version":"1.0"`) {
		t.Fatalf("expected the manifest version in the response, got %s", w.Body.String())
	}

	envPath := filepath.Join(root, "web", ".env")
	store := envfile.NewStore(envPath)
	store.Set("FOO", "bar")
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/services/web/config-data", nil)
	req2.SetPathValue("name", "web")
	w2 := httptest.NewRecorder()
	s.handleConfigData(w2, req2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "bar") {
		t.Fatalf("expected FOO=bar in response, got %s", w2.Body.String())
	}
}

func TestHandleConfigEnv_RewritesEnvFile(t *testing.T) {
	s, root := newTestServer(t)

	body := strings.NewReader(`{"envData":{"FOO":"bar","BAZ":"qux"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/services/web/config/env", body)
	req.SetPathValue("name", "web")
	w := httptest.NewRecorder()
	s.handleConfigEnv(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data, err := os.ReadFile(filepath.Join(root, "web", ".env"))
	if err != nil {
		t.Fatalf("read .env: %v", err)
	}
	if !strings.Contains(string(data), "FOO=bar") || !strings.Contains(string(data), "BAZ=qux") {
		t.Fatalf("expected both vars persisted, got %q", string(data))
	}
}

func TestHandleHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestWriteError_MapsValidationTo400AndOthersTo500(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fleeterr.Validation("test", "bad input"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a validation error, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	writeError(w2, fleeterr.NewPath(fleeterr.KindIO, "test", "/tmp/x", os.ErrNotExist))
	if w2.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a non-validation error, got %d", w2.Code)
	}
}
