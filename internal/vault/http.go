package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// HTTPVault reads notes from a remote file service:
//
//	GET {base}/files         -> {"files": ["notes/a.md", ...]}
//	GET {base}/files/{path}  -> raw file content
type HTTPVault struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu  sync.RWMutex
	idx *index
}

func NewHTTPVault(baseURL, apiKey string) *HTTPVault {
	return &HTTPVault{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		idx: newIndex(nil),
	}
}

// Refresh fetches the file listing used by Find.
func (v *HTTPVault) Refresh(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/files", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	v.authorize(httpReq)

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("list files: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode file list: %w", err)
	}
	sort.Strings(result.Files)

	v.mu.Lock()
	v.idx = newIndex(result.Files)
	v.mu.Unlock()
	return nil
}

func (v *HTTPVault) Find(address string) (File, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.idx.find(address)
}

func (v *HTTPVault) Read(ctx context.Context, f File) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/files/"+escapePath(f.Path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	v.authorize(httpReq)

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("read %s: status %d: %s", f.Path, resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

// Close releases idle connections.
func (v *HTTPVault) Close() {
	v.httpClient.CloseIdleConnections()
}

func (v *HTTPVault) authorize(r *http.Request) {
	if v.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+v.apiKey)
	}
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
