package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPStore uploads objects to the hosted storage bucket over its REST API.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPStore{baseURL: baseURL, token: token, client: client}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Put uploads the blob and returns its retrieval URL. When the bucket does
// not echo a URL, the public object path is derived from the base URL.
func (s *HTTPStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/object/"+path, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: storage returned %d: %s", path, resp.StatusCode, body)
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err == nil && upload.URL != "" {
		return upload.URL, nil
	}
	return s.baseURL + "/object/public/" + path, nil
}
