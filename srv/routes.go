package srv

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/siegeai/schemagen/infer"
	"github.com/siegeai/schemagen/jsonschema"
	"github.com/urfave/negroni"
)

const maxBodyBytes = 32 << 20

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", s.metrics.handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth()).Methods("GET")

	api := s.router.PathPrefix("/schemas").Subrouter()
	api.HandleFunc("", s.handleListSchemas()).Methods("GET")
	api.HandleFunc("/{name}", s.handleGetSchema()).Methods("GET")
	api.HandleFunc("/{name}", s.handleDeleteSchema()).Methods("DELETE")
	api.HandleFunc("/{name}/objects", s.handleAdd("object", (*jsonschema.Builder).AddObject)).Methods("POST")
	api.HandleFunc("/{name}/schemas", s.handleAdd("schema", (*jsonschema.Builder).AddSchema)).Methods("POST")
	api.Use(s.authMiddleware)

	s.router.Use(logMiddleware)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		slog.Info("request", "method", r.Method, "uri", r.RequestURI, "proto", r.Proto,
			"status", ww.Status(), "size", ww.Size())
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
				s.metrics.errors.WithLabelValues("auth").Inc()
				writeError(w, http.StatusUnauthorized, errors.New("missing or invalid api key"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	bs, err := gojson.Marshal(v)
	if err != nil {
		slog.Error("could not encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(bs); err != nil {
		slog.Debug("could not write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (*Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleListSchemas() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.names())
	}
}

func (s *Server) handleGetSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		e, ok := s.lookup(name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no schema named %q", name))
			return
		}
		e.mu.Lock()
		sch := e.b.ToSchema()
		e.mu.Unlock()
		writeJSON(w, http.StatusOK, sch)
	}
}

func (s *Server) handleDeleteSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if !s.remove(name) {
			writeError(w, http.StatusNotFound, fmt.Errorf("no schema named %q", name))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeOptions picks the document format from the Content-Type and the
// delimiter from the "delimiter" query parameter.
func decodeOptions(r *http.Request) infer.DecodeOptions {
	opts := infer.DecodeOptions{
		Format:    infer.FormatJSON,
		Delimiter: r.URL.Query().Get("delimiter"),
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		opts.Format = infer.FormatYAML
	}
	return opts
}

func (s *Server) handleAdd(kind string, add func(*jsonschema.Builder, any) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

		docs, err := infer.Decode(name, body, decodeOptions(r))
		if err != nil {
			s.metrics.errors.WithLabelValues("parse").Inc()
			writeError(w, http.StatusBadRequest, err)
			return
		}

		schema, warnings, err := s.apply(name, docs, add)
		if err != nil {
			s.metrics.errors.WithLabelValues("engine").Inc()
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.metrics.observations.WithLabelValues(kind).Add(float64(len(docs)))

		if warnings > 0 {
			slog.Debug("schema warnings", "name", name, "count", warnings)
		}
		writeJSON(w, http.StatusOK, schema)
	}
}
