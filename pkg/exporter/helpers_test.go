package exporter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fbexport/pkg/config"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
	"fbexport/pkg/storage"

	"github.com/stretchr/testify/require"
)

const testOwner = "100"

// fakeGraph is a routable stand-in for the Graph API and the photo CDN
type fakeGraph struct {
	server *httptest.Server
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	g := &fakeGraph{
		routes: map[string]http.HandlerFunc{},
		hits:   map[string]int{},
	}
	g.server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.server.Close)

	g.json("/me", map[string]interface{}{"id": testOwner, "name": "Owner"})
	g.json("/me/permissions", map[string]interface{}{
		"data": []map[string]interface{}{
			{"permission": "read_stream", "status": "granted"},
			{"permission": "user_photos", "status": "granted"},
			{"permission": "user_status", "status": "granted"},
		},
	})
	return g
}

func (g *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.hits[r.URL.Path]++
	h, ok := g.routes[r.URL.Path]
	g.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (g *fakeGraph) handle(path string, h http.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes[path] = h
}

func (g *fakeGraph) json(path string, body interface{}) {
	g.handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	})
}

func (g *fakeGraph) bytes(path string, data []byte) {
	g.handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	})
}

func (g *fakeGraph) hitCount(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits[path]
}

func (g *fakeGraph) url(path string) string {
	return g.server.URL + path
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func testConfig(g *fakeGraph) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Graph.BaseURL = g.url("/")
	cfg.Graph.Timeout = 5 * time.Second
	cfg.Retry.RetryDelay = time.Millisecond
	cfg.Crawl.Endpoints = []string{"feed"}
	cfg.Crawl.MultiEndpointSince = ""
	return cfg
}

func testClient(g *fakeGraph) *graph.Client {
	return graph.NewClient(g.url("/"), "tok", 5*time.Second, logger.NewNopLogger())
}

func testPhotos(t *testing.T) *storage.Manager {
	t.Helper()
	m, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func newTestSession(t *testing.T, g *fakeGraph, cfg *config.Config, log logger.Logger) *session {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	s, err := newSession(testClient(g), cfg, testOwner, config.PhotoSizeMaximum, testPhotos(t), log)
	require.NoError(t, err)
	return s
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func from(id string) map[string]interface{} {
	return map[string]interface{}{"id": id, "name": "Person " + id}
}

func statusItem(id string, created time.Time, message string) map[string]interface{} {
	return map[string]interface{}{
		"id":           id,
		"type":         "status",
		"from":         from(testOwner),
		"message":      message,
		"created_time": ts(created),
	}
}

// decodePage round-trips a fixture through JSON the way the client would
func decodePage(t *testing.T, body interface{}) *graph.Page {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var page graph.Page
	require.NoError(t, json.Unmarshal(raw, &page))
	return &page
}

func decodeItem(t *testing.T, body map[string]interface{}) *graph.Item {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var it graph.Item
	require.NoError(t, json.Unmarshal(raw, &it))
	return &it
}

func nopLog() logger.Logger {
	return logger.NewNopLogger()
}
