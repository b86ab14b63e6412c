package httpapi

import (
	"context"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/power"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	list := s.enumerator.List()
	names := make([]string, 0, len(list))
	for _, svc := range list {
		names = append(names, svc.Name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handleServiceStatus", "unknown service %q", name))
		return
	}

	status, err := s.enumerator.PollStatus(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.enumerator.Exists(name) {
		writeError(w, fleeterr.Validation("handlePower", "unknown service %q", name))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fleeterr.Validation("handlePower", "failed to read body: %v", err))
		return
	}
	defer r.Body.Close()

	p := s.parserPool.Get()
	defer s.parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, fleeterr.Validation("handlePower", "invalid JSON: %v", err))
		return
	}
	actionStr := string(v.GetStringBytes("action"))

	action, err := power.ParseAction(actionStr)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := s.guard.Execute(ctx, s.enumerator.ServiceDir(name), name, action); err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{"success": false, "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": string(action) + " succeeded"})
}

func statusFor(err error) int {
	if fleeterr.KindOf(err) == fleeterr.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
