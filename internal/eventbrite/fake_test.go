package eventbrite

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// call is one request received by fakeEventbrite
type call struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// fakeEventbrite serves the endpoints used by the registrar. A handler set in
// overrides replaces the default response for "METHOD /path".
type fakeEventbrite struct {
	t         *testing.T
	server    *httptest.Server
	mu        sync.Mutex
	calls     []call
	overrides map[string]http.HandlerFunc

	ticketClasses string
	published     bool
}

func newFakeEventbrite(t *testing.T) *fakeEventbrite {
	t.Helper()
	f := &fakeEventbrite{
		t:             t,
		overrides:     map[string]http.HandlerFunc{},
		ticketClasses: `{"ticket_classes":[{"id":"tc1","name":"General","quantity_total":10}]}`,
		published:     true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /events/{id}/copy/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"evt-1","url":"https://www.eventbrite.com/e/evt-1"}`)
	})
	mux.HandleFunc("POST /events/{id}/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"evt-1"}`)
	})
	mux.HandleFunc("POST /events/{id}/structured_content/1/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"modules":[]}`)
	})
	mux.HandleFunc("GET /events/{id}/ticket_classes/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.ticketClasses)
	})
	mux.HandleFunc("POST /events/{id}/ticket_classes/{tc}/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("POST /events/{id}/publish/{$}", func(w http.ResponseWriter, _ *http.Request) {
		if f.published {
			writeJSON(w, http.StatusOK, `{"published":true}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"published":false}`)
	})
	mux.HandleFunc("GET /organizations/{id}/events/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"events":[
			{"id":"e2","url":"https://eb/e2","status":"live","name":{"text":"Sound Bath"},"start":{"timezone":"Pacific/Honolulu","local":"2025-07-04T18:00:00","utc":"2025-07-05T04:00:00Z"}},
			{"id":"e1","url":"https://eb/e1","status":"draft","name":{"text":"Yoga"},"start":{"timezone":"Pacific/Honolulu","local":"2025-06-01T08:00:00","utc":"2025-06-01T18:00:00Z"}}
		]}`)
	})

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			if err := json.Unmarshal(raw, &c.Body); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}

		f.mu.Lock()
		f.calls = append(f.calls, c)
		override := f.overrides[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeEventbrite) override(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}
}

func (f *fakeEventbrite) URL() string {
	return f.server.URL
}

func (f *fakeEventbrite) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeEventbrite) Paths() []string {
	var paths []string
	for _, c := range f.Calls() {
		paths = append(paths, c.Method+" "+c.Path)
	}
	return paths
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
