package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const gistTimeout = 15 * time.Second

var gistAPIURL = "https://api.github.com/gists"

// GistStore keeps documents as files of a single GitHub Gist
type GistStore struct {
	gistID      string
	githubToken string
	httpClient  *http.Client
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

// NewGistStore creates a Gist-backed store. The token needs the gist scope.
func NewGistStore(gistID, githubToken string) (*GistStore, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist ID is required")
	}
	if githubToken == "" {
		return nil, fmt.Errorf("GitHub token is required (set GITHUB_TOKEN)")
	}

	return &GistStore{
		gistID:      gistID,
		githubToken: githubToken,
		httpClient:  &http.Client{Timeout: gistTimeout},
	}, nil
}

// Get returns the content of the gist file named key
func (g *GistStore) Get(ctx context.Context, key string) ([]byte, error) {
	files, err := g.files(ctx)
	if err != nil {
		return nil, err
	}

	file, ok := files[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Large files are truncated in the API response
	if file.Truncated && file.RawURL != "" {
		return g.raw(ctx, file.RawURL)
	}
	return []byte(file.Content), nil
}

// Put creates or replaces the gist file named key
func (g *GistStore) Put(ctx context.Context, key string, data []byte) error {
	payload := map[string]interface{}{
		"files": map[string]interface{}{
			key: map[string]string{"content": string(data)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPatch, g.url(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("updating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}
	return nil
}

// List returns the names of gist files starting with prefix
func (g *GistStore) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := g.files(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for name := range files {
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (g *GistStore) url() string {
	return fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)
}

func (g *GistStore) files(ctx context.Context) (map[string]gistFile, error) {
	resp, err := g.do(ctx, http.MethodGet, g.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gist struct {
		Files map[string]gistFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("decoding gist response: %w", err)
	}
	return gist.Files, nil
}

func (g *GistStore) raw(ctx context.Context, url string) ([]byte, error) {
	resp, err := g.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching raw gist file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (g *GistStore) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return g.httpClient.Do(req)
}
