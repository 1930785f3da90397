package runtime

import (
	"net/http"
	"strings"

	"github.com/drblury/fieldcounter/internal/runtime/counter"
	"github.com/drblury/fieldcounter/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/fieldcounter/internal/runtime/logging"
)

const defaultWebUIPort = 8081

// StartWebUIServer registers the admin API: /api/handlers lists handler stats,
// /api/counters reads (GET) or resets (DELETE) the counter named by ?name=.
// Without a name, stores that can enumerate counters list them.
func (s *Service) StartWebUIServer() {
	if s.Conf == nil || !s.Conf.WebUIEnabled {
		return
	}

	port := s.Conf.WebUIPort
	if port == 0 {
		port = defaultWebUIPort
	}

	s.RegisterHTTPHandler(port, "/api/handlers", s.withCORS(http.HandlerFunc(s.handleGetHandlers)))
	s.RegisterHTTPHandler(port, "/api/counters", s.withCORS(http.HandlerFunc(s.handleCounters)))
}

func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Conf != nil && len(s.Conf.WebUICORSAllowedOrigins) > 0 {
			if allowedOrigin := s.getAllowedCORSOrigin(r.Header.Get("Origin")); allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleGetHandlers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()

	s.writeJSON(w, s.handlers)
}

type counterResponse struct {
	Name   string             `json:"name"`
	Counts map[string]float64 `json:"counts"`
	// Exact holds the decimal totals when the store keeps them.
	Exact map[string]string `json:"exact,omitempty"`
}

type counterListResponse struct {
	Counters []string `json:"counters"`
}

func (s *Service) handleCounters(w http.ResponseWriter, r *http.Request) {
	if s.counters == nil {
		http.Error(w, "counter store is not readable", http.StatusNotFound)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		lister, ok := s.counters.(counter.Lister)
		if !ok || r.Method != http.MethodGet {
			http.Error(w, "query parameter name is required", http.StatusBadRequest)
			return
		}
		s.writeJSON(w, counterListResponse{Counters: lister.Names()})
		return
	}

	switch r.Method {
	case http.MethodGet:
		counts, err := s.counters.Counts(r.Context(), name)
		if err != nil {
			s.logger().Error("Failed to read counter", err, loggingpkg.LogFields{"counter": name})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		resp := counterResponse{Name: name, Counts: counts}
		if exact, ok := s.counters.(counter.ExactReader); ok {
			resp.Exact = make(map[string]string, len(counts))
			for value := range counts {
				resp.Exact[value] = exact.Total(name, value)
			}
		}
		s.writeJSON(w, resp)
	case http.MethodDelete:
		if err := s.counters.Reset(r.Context(), name); err != nil {
			s.logger().Error("Failed to reset counter", err, loggingpkg.LogFields{"counter": name})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.logger().Info("Counter reset", loggingpkg.LogFields{"counter": name})
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, v any) {
	body, err := jsoncodec.Marshal(v)
	if err != nil {
		s.logger().Error("Failed to encode response", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// getAllowedCORSOrigin returns the Access-Control-Allow-Origin value for
// requestOrigin, or "" when it is not allowed.
func (s *Service) getAllowedCORSOrigin(requestOrigin string) string {
	if s.Conf == nil {
		return ""
	}
	for _, allowed := range s.Conf.WebUICORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
