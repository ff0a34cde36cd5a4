package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/hosts"
)

const keyPrefix = "customtrans"

// RemoteStore keeps the catalog in a key-value service reached over HTTP
// (PUT/GET/DELETE /kv/{key}, prefix scans via GET /kv/{key}/*).
type RemoteStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteStore(baseURL, apiKey string) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type nodeRequest struct {
	Value  any    `json:"value"`
	Source string `json:"source,omitempty"`
}

type node struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

func workKey(id string) string { return keyPrefix + "/works/" + url.PathEscape(id) }
func volumesKey(id string) string { return keyPrefix + "/volumes/" + url.PathEscape(id) }
func honorificKey(id string) string { return keyPrefix + "/honorifics/" + url.PathEscape(id) }
func glossaryKey(name string) string { return keyPrefix + "/glossaries/" + url.PathEscape(name) }

func (s *RemoteStore) Works(ctx context.Context) ([]Work, error) {
	nodes, err := s.listChildren(ctx, keyPrefix+"/works")
	if err != nil {
		return nil, err
	}
	works := make([]Work, 0, len(nodes))
	for _, n := range nodes {
		var w Work
		if err := json.Unmarshal(n.Value, &w); err != nil {
			return nil, fmt.Errorf("decode work %s: %w", n.Key, err)
		}
		works = append(works, w)
	}
	sort.Slice(works, func(i, j int) bool { return works[i].ID < works[j].ID })
	return works, nil
}

func (s *RemoteStore) Work(ctx context.Context, id string) (Work, error) {
	var w Work
	if err := s.getValue(ctx, workKey(id), &w); err != nil {
		return Work{}, fmt.Errorf("work %s: %w", id, err)
	}
	return w, nil
}

func (s *RemoteStore) PutWork(ctx context.Context, w Work) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return s.putNode(ctx, workKey(w.ID), w)
}

func (s *RemoteStore) Volumes(ctx context.Context, workID string) ([]hosts.Volume, error) {
	var v []hosts.Volume
	err := s.getValue(ctx, volumesKey(workID), &v)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// A work with no catalog yet has no volumes node.
	if _, werr := s.Work(ctx, workID); werr != nil {
		return nil, werr
	}
	return nil, nil
}

func (s *RemoteStore) SetVolumes(ctx context.Context, workID string, volumes []hosts.Volume) error {
	return s.putNode(ctx, volumesKey(workID), volumes)
}

func (s *RemoteStore) Honorifics(ctx context.Context) ([]dictionary.Rule, error) {
	nodes, err := s.listChildren(ctx, keyPrefix+"/honorifics")
	if err != nil {
		return nil, err
	}
	rules := make([]dictionary.Rule, 0, len(nodes))
	for _, n := range nodes {
		var r dictionary.Rule
		if err := json.Unmarshal(n.Value, &r); err != nil {
			return nil, fmt.Errorf("decode honorific %s: %w", n.Key, err)
		}
		rules = append(rules, r)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (s *RemoteStore) PutHonorific(ctx context.Context, r dictionary.Rule) error {
	if r.ID == "" {
		return fmt.Errorf("honorific id is empty")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	return s.putNode(ctx, honorificKey(r.ID), r)
}

func (s *RemoteStore) DeleteHonorific(ctx context.Context, id string) error {
	return s.deleteNode(ctx, honorificKey(id))
}

func (s *RemoteStore) GlossaryEnabled(ctx context.Context, name string) (bool, error) {
	var on bool
	err := s.getValue(ctx, glossaryKey(name), &on)
	if err == nil {
		return on, nil
	}
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	return false, err
}

func (s *RemoteStore) SetGlossaryEnabled(ctx context.Context, name string, enabled bool) error {
	return s.putNode(ctx, glossaryKey(name), enabled)
}

// Close releases idle connections.
func (s *RemoteStore) Close() {
	s.httpClient.CloseIdleConnections()
}

func (s *RemoteStore) newRequest(ctx context.Context, method, key string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/kv/"+key, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	return req, nil
}

func (s *RemoteStore) putNode(ctx context.Context, key string, value any) error {
	body, err := json.Marshal(nodeRequest{Value: value, Source: "customtrans"})
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodPut, key, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("put node %s: status %d: %s", key, resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *RemoteStore) getValue(ctx context.Context, key string, dst any) error {
	req, err := s.newRequest(ctx, http.MethodGet, key, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("get node %s: status %d: %s", key, resp.StatusCode, string(respBody))
	}

	var n node
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	if err := json.Unmarshal(n.Value, dst); err != nil {
		return fmt.Errorf("decode node %s value: %w", key, err)
	}
	return nil
}

func (s *RemoteStore) deleteNode(ctx context.Context, key string) error {
	req, err := s.newRequest(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete node %s: status %d: %s", key, resp.StatusCode, string(respBody))
	}
}

func (s *RemoteStore) listChildren(ctx context.Context, key string) ([]node, error) {
	req, err := s.newRequest(ctx, http.MethodGet, key+"/*", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list children %s: status %d: %s", key, resp.StatusCode, string(respBody))
	}

	var result struct {
		Nodes []node `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode children: %w", err)
	}
	return result.Nodes, nil
}
