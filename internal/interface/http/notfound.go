package http

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"
)

//go:embed 404.html
var notFoundPage []byte

const notFoundText = "404 Not Found"

// handleNotFound answers unmatched routes and methods with HTML, JSON or
// plain text, in that order of preference, depending on what Accept allows.
func (a *API) handleNotFound(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	switch {
	case accepts(accept, "text/html"):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write(notFoundPage)
	case accepts(accept, "application/json"):
		respondMessage(w, http.StatusNotFound, notFoundText)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundText))
	}
}

// accepts reports whether the Accept header admits mediaType with a non-zero
// quality. An absent header admits everything.
func accepts(header, mediaType string) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}
	typ, _, _ := strings.Cut(mediaType, "/")
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		rng := strings.ToLower(strings.TrimSpace(fields[0]))
		if rng != "*/*" && rng != typ+"/*" && rng != mediaType {
			continue
		}
		if quality(fields[1:]) > 0 {
			return true
		}
	}
	return false
}

func quality(params []string) float64 {
	for _, p := range params {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || strings.ToLower(strings.TrimSpace(k)) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}
