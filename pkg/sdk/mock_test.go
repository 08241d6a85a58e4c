package indexgate

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// --- fake server ---

type recorded struct {
	Method string
	Path   string // escaped
	Auth   string
	Body   []byte
}

type fakeServer struct {
	t        *testing.T
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recorded
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{t: t, routes: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

// on registers a handler for "METHOD /escaped/path".
func (f *fakeServer) on(route string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = h
}

// reply registers a handler answering status with v encoded as JSON.
func (f *fakeServer) reply(route string, status int, v any) {
	f.on(route, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if v != nil {
			_ = json.NewEncoder(w).Encode(v)
		}
	})
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	route := r.Method + " " + r.URL.EscapedPath()

	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	h, ok := f.routes[route]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	h(w, r)
}

func (f *fakeServer) last() recorded {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("no request recorded")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeServer) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method+" "+r.Path == route {
			n++
		}
	}
	return n
}

func decodeBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("request body %q is not a JSON object: %v", data, err)
	}
	return m
}
