package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
)

func (s *Server) handleLogFiles(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	files, err := s.facade.ListLogFiles(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleLogRead(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	q := r.URL.Query()

	file := q.Get("file")
	if file == "" {
		writeError(w, fleeterr.Validation("handleLogRead", "missing file"))
		return
	}

	start, err := parseIntParam(q, "start", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	num, err := parseIntParam(q, "num", 100)
	if err != nil {
		writeError(w, err)
		return
	}
	if num <= 0 {
		writeError(w, fleeterr.Validation("handleLogRead", "num must be > 0, got %d", num))
		return
	}

	lines, err := s.facade.ReadLines(r.Context(), name, file, start, num)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleTimeRange(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	file := r.URL.Query().Get("file")
	if file == "" {
		writeError(w, fleeterr.Validation("handleTimeRange", "missing file"))
		return
	}

	tr, err := s.facade.GetTimeRange(name, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (s *Server) handleLogSearch(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fleeterr.Validation("handleLogSearch", "failed to read body: %v", err))
		return
	}
	defer r.Body.Close()

	p := s.parserPool.Get()
	defer s.parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, fleeterr.Validation("handleLogSearch", "invalid JSON: %v", err))
		return
	}

	file := string(v.GetStringBytes("file"))
	if file == "" {
		writeError(w, fleeterr.Validation("handleLogSearch", "missing file"))
		return
	}

	from := optionalString(v, "from")
	to := optionalString(v, "to")

	limit := -1
	if v.Exists("limit") {
		limit = v.GetInt("limit")
	}
	offset := 0
	if v.Exists("offset") {
		offset = v.GetInt("offset")
	}
	search := string(v.GetStringBytes("search"))

	result, err := s.facade.ReadTimeRange(r.Context(), name, file, from, to, limit, offset, search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lines": result.Lines, "total": result.Total})
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	q := r.URL.Query()

	file := q.Get("file")
	if file == "" {
		writeError(w, fleeterr.Validation("handleHistogram", "missing file"))
		return
	}

	fromMs, err := parseIntParam(q, "from", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	toMs, err := parseIntParam(q, "to", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	intervalMs, err := parseIntParam(q, "interval", 60000)
	if err != nil {
		writeError(w, err)
		return
	}

	points, err := s.facade.Histogram(r.Context(), name, file, int64(fromMs), int64(toMs), int64(intervalMs), q.Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func optionalString(v *fastjson.Value, key string) *string {
	sb := v.GetStringBytes(key)
	if sb == nil {
		return nil
	}
	s := string(sb)
	return &s
}

func parseIntParam(q interface{ Get(string) string }, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fleeterr.Validation("parseIntParam", "invalid %s %q: %v", key, raw, err)
	}
	return n, nil
}
