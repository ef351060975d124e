// Package srv serves named schema builders over HTTP.
package srv

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/siegeai/schemagen/jsonschema"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	router  *mux.Router
	apiKey  string
	opts    []jsonschema.Option
	metrics *metrics

	mu      sync.RWMutex
	entries map[string]*entry
}

// entry serializes access to one builder; builders are not safe for
// concurrent use.
type entry struct {
	mu sync.Mutex
	b  *jsonschema.Builder
}

type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer key" on every /schemas route.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithBuilderOptions configures every builder the server creates.
func WithBuilderOptions(opts ...jsonschema.Option) Option {
	return func(s *Server) {
		s.opts = append(s.opts, opts...)
	}
}

func New(opts ...Option) (*Server, error) {
	s := &Server{
		router:  mux.NewRouter(),
		metrics: newMetrics(),
		entries: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	// surface bad builder options now rather than on the first upload
	if _, err := s.newBuilder(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) newBuilder() (*jsonschema.Builder, error) {
	return jsonschema.New(s.opts...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

func (s *Server) lookup(name string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	return e, ok
}

func (s *Server) lookupOrCreate(name string) (*entry, error) {
	if e, ok := s.lookup(name); ok {
		return e, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		return e, nil
	}
	b, err := s.newBuilder()
	if err != nil {
		return nil, err
	}
	e := &entry{b: b}
	s.entries[name] = e
	s.metrics.schemas.Set(float64(len(s.entries)))
	return e, nil
}

func (s *Server) remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return false
	}
	delete(s.entries, name)
	s.metrics.schemas.Set(float64(len(s.entries)))
	return true
}

func (s *Server) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for k := range s.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// apply adds docs to the named builder. A batch is applied in full or not
// at all: the docs go to a copy which replaces the stored builder on success.
func (s *Server) apply(name string, docs []any, add func(*jsonschema.Builder, any) error) (jsonschema.Schema, int, error) {
	e, err := s.lookupOrCreate(name)
	if err != nil {
		return nil, 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := s.newBuilder()
	if err != nil {
		return nil, 0, err
	}
	if !e.b.Empty() {
		if err := next.Merge(e.b); err != nil {
			return nil, 0, err
		}
	}
	for _, doc := range docs {
		if err := add(next, doc); err != nil {
			return nil, 0, err
		}
	}
	e.b = next
	// Rendered under the lock: a later Merge of next reads the same state.
	return next.ToSchema(), len(next.Warnings()), nil
}
