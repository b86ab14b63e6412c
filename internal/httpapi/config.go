package httpapi

import (
	"io"
	"net/http"

	"github.com/valyala/fastjson"

	"github.com/fleetdeck/fleetdeck/internal/compose"
	"github.com/fleetdeck/fleetdeck/internal/envfile"
	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
)

// handleConfig returns the service's compose manifest version and raw
// document (spec §6's `/config`).
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handleConfig", "unknown service %q", name))
		return
	}

	manifest, err := compose.Read(s.composePath(name))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"manifest": manifest.Raw}
	if manifest.Version != nil {
		resp["version"] = manifest.Version.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConfigData returns the service's .env contents (spec §6's
// `/config-data`).
func (s *Server) handleConfigData(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handleConfigData", "unknown service %q", name))
		return
	}

	store := envfile.NewStore(s.envPath(name))
	if err := store.Load(); err != nil {
		writeError(w, fleeterr.NewPath(fleeterr.KindIO, "handleConfigData", s.envPath(name), err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"envData": store.All()})
}

// handleConfigEnv rewrites the service's .env file (spec §6's
// `POST /config/env` body `{envData}`).
func (s *Server) handleConfigEnv(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handleConfigEnv", "unknown service %q", name))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fleeterr.Validation("handleConfigEnv", "failed to read body: %v", err))
		return
	}
	defer r.Body.Close()

	p := s.parserPool.Get()
	defer s.parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, fleeterr.Validation("handleConfigEnv", "invalid JSON: %v", err))
		return
	}

	envObj := v.Get("envData")
	if envObj == nil {
		writeError(w, fleeterr.Validation("handleConfigEnv", "missing envData"))
		return
	}
	obj, err := envObj.Object()
	if err != nil {
		writeError(w, fleeterr.Validation("handleConfigEnv", "envData must be an object"))
		return
	}

	vars := make(map[string]string, obj.Len())
	obj.Visit(func(key []byte, val *fastjson.Value) {
		sv, _ := val.StringBytes()
		vars[string(key)] = string(sv)
	})

	store := envfile.NewStore(s.envPath(name))
	store.ReplaceAll(vars)

	if err := store.Save(); err != nil {
		writeError(w, fleeterr.NewPath(fleeterr.KindIO, "handleConfigEnv", s.envPath(name), err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
