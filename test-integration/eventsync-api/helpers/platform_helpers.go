package helpers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Call is one request received by a fake platform
type Call struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recorder) record(req *http.Request) Call {
	c := Call{Method: req.Method, Path: req.URL.Path, Auth: req.Header.Get("Authorization")}
	if raw, _ := io.ReadAll(req.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &c.Body)
		req.Body = io.NopCloser(bytes.NewReader(raw))
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	return c
}

// Calls returns a copy of the requests received so far
func (r *recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Reset forgets the recorded requests
func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// FakeEventbrite serves the Eventbrite endpoints used when creating a registration
type FakeEventbrite struct {
	recorder
	Server *httptest.Server

	mu         sync.Mutex
	eventID       string
	copyStatus    int
	publishStatus int
	published     bool
}

// FakeEventbriteBuilder provides a fluent interface for configuring a FakeEventbrite
type FakeEventbriteBuilder struct {
	eventID       string
	copyStatus    int
	publishStatus int
	published     bool
}

// NewFakeEventbriteBuilder creates a builder for a fake that copies and publishes successfully
func NewFakeEventbriteBuilder() *FakeEventbriteBuilder {
	return &FakeEventbriteBuilder{
		eventID:       "1001",
		copyStatus:    http.StatusOK,
		publishStatus: http.StatusOK,
		published:     true,
	}
}

// WithEventID sets the id of the copied event
func (b *FakeEventbriteBuilder) WithEventID(id string) *FakeEventbriteBuilder {
	b.eventID = id
	return b
}

// WithCopyStatus makes the template copy answer with status
func (b *FakeEventbriteBuilder) WithCopyStatus(status int) *FakeEventbriteBuilder {
	b.copyStatus = status
	return b
}

// WithPublishStatus makes the publish call answer with status
func (b *FakeEventbriteBuilder) WithPublishStatus(status int) *FakeEventbriteBuilder {
	b.publishStatus = status
	return b
}

// WithPublished sets the published flag reported by the publish endpoint
func (b *FakeEventbriteBuilder) WithPublished(published bool) *FakeEventbriteBuilder {
	b.published = published
	return b
}

// Build creates and starts the fake server
func (b *FakeEventbriteBuilder) Build() *FakeEventbrite {
	f := &FakeEventbrite{
		eventID:       b.eventID,
		copyStatus:    b.copyStatus,
		publishStatus: b.publishStatus,
		published:     b.published,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /events/{id}/copy/{$}", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		status, id := f.copyStatus, f.eventID
		f.mu.Unlock()
		if status != http.StatusOK {
			writeJSON(w, status, `{"error":"NOT_AUTHORIZED","error_description":"copy rejected"}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%q,"url":%q}`, id, f.EventURL()))
	})
	mux.HandleFunc("POST /events/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%q}`, r.PathValue("id")))
	})
	mux.HandleFunc("POST /events/{id}/structured_content/1/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"modules":[]}`)
	})
	mux.HandleFunc("GET /events/{id}/ticket_classes/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"ticket_classes":[{"id":"tc1","name":"General","quantity_total":10}]}`)
	})
	mux.HandleFunc("POST /events/{id}/ticket_classes/{tc}/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("POST /events/{id}/publish/{$}", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		status, published := f.publishStatus, f.published
		f.mu.Unlock()
		if status != http.StatusOK {
			writeJSON(w, status, `{"error":"INTERNAL_ERROR","error_description":"publish failed"}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"published":%t}`, published))
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		mux.ServeHTTP(w, r)
	}))
	return f
}

// URL returns the API base URL of the fake
func (f *FakeEventbrite) URL() string {
	return f.Server.URL
}

// EventURL is the public URL reported for the copied event
func (f *FakeEventbrite) EventURL() string {
	return "https://www.eventbrite.com/e/evening-sound-bath-" + f.eventID
}

// Close shuts the fake down
func (f *FakeEventbrite) Close() {
	f.Server.Close()
}

// FakeGitHub serves the contents API of a single repository and keeps the files written to it
type FakeGitHub struct {
	recorder
	Server *httptest.Server

	mu        sync.Mutex
	putStatus int
	files     map[string][]byte
}

// NewFakeGitHub creates and starts a fake whose writes answer with putStatus
func NewFakeGitHub(putStatus int) *FakeGitHub {
	f := &FakeGitHub{putStatus: putStatus, files: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		_, ok := f.files[r.PathValue("path")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, `{"message":"Not Found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"sha":"existing-sha"}`)
	})
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("path")
		f.mu.Lock()
		status := f.putStatus
		f.mu.Unlock()
		if status != http.StatusOK && status != http.StatusCreated {
			writeJSON(w, status, `{"message":"Invalid request"}`)
			return
		}

		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"Problems parsing JSON"}`)
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, `{"message":"content is not valid Base64"}`)
			return
		}
		f.mu.Lock()
		f.files[filePath] = decoded
		f.mu.Unlock()

		htmlURL := fmt.Sprintf("https://github.com/%s/%s/blob/main/%s", r.PathValue("owner"), r.PathValue("repo"), filePath)
		writeJSON(w, status, fmt.Sprintf(`{"content":{"path":%q,"html_url":%q},"commit":{"sha":"c0ffee"}}`, filePath, htmlURL))
	})

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		mux.ServeHTTP(w, r)
	}))
	return f
}

// URL returns the API base URL of the fake
func (f *FakeGitHub) URL() string {
	return f.Server.URL
}

// File returns the content written at path
func (f *FakeGitHub) File(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	return data, ok
}

// Close shuts the fake down
func (f *FakeGitHub) Close() {
	f.Server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
