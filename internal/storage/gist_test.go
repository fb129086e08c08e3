package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeGist serves a single gist over the subset of the GitHub API GistStore uses
type fakeGist struct {
	mu    sync.Mutex
	files map[string]string
	raw   map[string]bool
}

func (f *fakeGist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "token test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if name := strings.TrimPrefix(r.URL.Path, "/raw/"); name != r.URL.Path {
		_, _ = w.Write([]byte(f.files[name]))
		return
	}
	if r.URL.Path != "/gists/abc123" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		files := make(map[string]gistFile)
		for name, content := range f.files {
			if f.raw[name] {
				files[name] = gistFile{Content: content[:1], Truncated: true, RawURL: "http://" + r.Host + "/raw/" + name}
				continue
			}
			files[name] = gistFile{Content: content}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": files})
	case http.MethodPatch:
		var payload struct {
			Files map[string]gistFile `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for name, file := range payload.Files {
			f.files[name] = file.Content
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "abc123"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestGistStore(t *testing.T, fake *fakeGist) *GistStore {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	originalURL := gistAPIURL
	gistAPIURL = server.URL + "/gists"
	t.Cleanup(func() { gistAPIURL = originalURL })

	g, err := NewGistStore("abc123", "test-token")
	if err != nil {
		t.Fatalf("NewGistStore() error = %v", err)
	}
	return g
}

func TestNewGistStore_Validation(t *testing.T) {
	if _, err := NewGistStore("", "token"); err == nil {
		t.Error("expected error for empty gist ID")
	}
	if _, err := NewGistStore("abc123", ""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestGistStore_TruncatedFile(t *testing.T) {
	fake := &fakeGist{
		files: map[string]string{"week_2026_05_31.json": `{"days":[]}`},
		raw:   map[string]bool{"week_2026_05_31.json": true},
	}
	g := newTestGistStore(t, fake)

	got, err := g.Get(context.Background(), "week_2026_05_31.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"days":[]}` {
		t.Errorf("Get() = %q, want full raw content", got)
	}
}

func TestGistStore_BadToken(t *testing.T) {
	g := newTestGistStore(t, &fakeGist{files: map[string]string{}})
	g.githubToken = "wrong"

	_, err := g.Get(context.Background(), "manifest.json")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want API error", err)
	}
	if err := g.Put(context.Background(), "manifest.json", []byte("{}")); err == nil {
		t.Error("Put() should fail with a bad token")
	}
}
