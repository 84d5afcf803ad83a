package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cocobologroup/seatsync/internal/docstore"
)

// HTTPClient implements DocsClient using the seatsync HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func docPath(collection string, id string) string {
	p := "/v1/docs/" + url.PathEscape(collection)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *HTTPClient) Create(ctx context.Context, collection string, fields map[string]any) (*docstore.Document, error) {
	var doc docstore.Document
	if err := c.doJSON(ctx, http.MethodPost, docPath(collection, ""), fields, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var doc docstore.Document
	if err := c.doJSON(ctx, http.MethodGet, docPath(collection, id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	var docs []docstore.Document
	if err := c.doJSON(ctx, http.MethodGet, docPath(collection, ""), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *HTTPClient) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) (*docstore.Document, error) {
	path := docPath(collection, id)
	if !merge {
		path += "?merge=false"
	}
	var doc docstore.Document
	if err := c.doJSON(ctx, http.MethodPut, path, fields, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) Update(ctx context.Context, collection, id string, fields map[string]any) (*docstore.Document, error) {
	var doc docstore.Document
	if err := c.doJSON(ctx, http.MethodPatch, docPath(collection, id), fields, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) Delete(ctx context.Context, collection, id string) error {
	return c.doJSON(ctx, http.MethodDelete, docPath(collection, id), nil, nil)
}

func (c *HTTPClient) Nearby(ctx context.Context, collection string, lat, lng, radiusMeters float64) ([]docstore.Document, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusMeters, 'f', -1, 64))

	var docs []docstore.Document
	if err := c.doJSON(ctx, http.MethodGet, docPath(collection, "")+"/nearby?"+q.Encode(), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *HTTPClient) Backup(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/backup", nil, nil)
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Watch opens the server's SSE stream and delivers events on the
// returned channel until ctx is cancelled or the connection drops, at
// which point the channel is closed.
func (c *HTTPClient) Watch(ctx context.Context, topics []string) (<-chan StreamEvent, error) {
	path := "/v1/events/stream"
	if len(topics) > 0 {
		q := url.Values{}
		q.Set("topics", strings.Join(topics, ","))
		path += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	ch := make(chan StreamEvent, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		readSSE(ctx, resp.Body, ch)
	}()
	return ch, nil
}

// readSSE parses "id:", "event:" and "data:" lines from an SSE body.
// Comment lines (keepalives) are ignored; a blank line dispatches the
// accumulated event.
func readSSE(ctx context.Context, body io.Reader, ch chan<- StreamEvent) {
	scanner := bufio.NewScanner(body)
	var evt StreamEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if evt.Topic != "" || len(evt.Data) > 0 {
				select {
				case ch <- evt:
				case <-ctx.Done():
					return
				}
			}
			evt = StreamEvent{}
		case strings.HasPrefix(line, ":"):
			// Keepalive comment.
		case strings.HasPrefix(line, "id:"):
			evt.ID = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:"):
			evt.Topic = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			evt.Data = []byte(strings.TrimPrefix(line, "data:"))
		}
	}
}

// APIError is returned for non-2xx responses from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes
// the JSON response into result when non-nil.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
