package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	query       string
	body        string
	contentType string
	authHeader  string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.authHeader = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler, token string) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, token)
}

func TestHTTPClient_Get(t *testing.T) {
	h := &testHandler{responseBody: `{"collection":"guests","id":"g1","fields":{"firstName":"Jane"}}`}
	c := newTestClient(t, h, "")

	doc, err := c.Get(context.Background(), "guests", "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/v1/docs/guests/g1" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if doc.ID != "g1" || doc.Fields["firstName"] != "Jane" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHTTPClient_Create(t *testing.T) {
	h := &testHandler{statusCode: http.StatusCreated, responseBody: `{"collection":"guests","id":"fresh","fields":{"firstName":"Jane"}}`}
	c := newTestClient(t, h, "")

	doc, err := c.Create(context.Background(), "guests", map[string]any{"firstName": "Jane"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/v1/docs/guests" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("content type = %q", h.contentType)
	}
	if h.body != `{"firstName":"Jane"}` {
		t.Errorf("body = %q", h.body)
	}
	if doc.ID != "fresh" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHTTPClient_SetReplace(t *testing.T) {
	h := &testHandler{responseBody: `{"collection":"guests","id":"g1","fields":{}}`}
	c := newTestClient(t, h, "")

	if _, err := c.Set(context.Background(), "guests", "g1", map[string]any{"a": 1}, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if h.method != http.MethodPut || h.query != "merge=false" {
		t.Errorf("request = %s %s?%s", h.method, h.path, h.query)
	}
}

func TestHTTPClient_SetMergeOmitsQuery(t *testing.T) {
	h := &testHandler{responseBody: `{"collection":"guests","id":"g1","fields":{}}`}
	c := newTestClient(t, h, "")

	if _, err := c.Set(context.Background(), "guests", "g1", map[string]any{"a": 1}, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if h.query != "" {
		t.Errorf("query = %q, want merge left to the server default", h.query)
	}
}

func TestHTTPClient_Delete(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNoContent}
	c := newTestClient(t, h, "")

	if err := c.Delete(context.Background(), "guests", "g1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if h.method != http.MethodDelete || h.path != "/v1/docs/guests/g1" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
}

func TestHTTPClient_Nearby(t *testing.T) {
	h := &testHandler{responseBody: `[{"collection":"servers","id":"s1","fields":{}}]`}
	c := newTestClient(t, h, "")

	docs, err := c.Nearby(context.Background(), "servers", 40.75, -73.98, 500)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if h.path != "/v1/docs/servers/nearby" {
		t.Errorf("path = %q", h.path)
	}
	if h.query != "lat=40.75&lng=-73.98&radius=500" {
		t.Errorf("query = %q", h.query)
	}
	if len(docs) != 1 || docs[0].ID != "s1" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestHTTPClient_AuthHeader(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c := newTestClient(t, h, "sekrit")

	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.authHeader != "Bearer sekrit" {
		t.Errorf("auth header = %q", h.authHeader)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNotFound, responseBody: `{"error":"document not found"}`}
	c := newTestClient(t, h, "")

	_, err := c.Get(context.Background(), "guests", "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "document not found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestHTTPClient_Watch(t *testing.T) {
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, ":keepalive\n\n")
		io.WriteString(w, "id:1\nevent:seatsync.doc.guests.g1\ndata:{\"kind\":\"set\"}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})
	c := newTestClient(t, stream, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Watch(ctx, []string{"seatsync.doc.guests.*"})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.ID != "1" || evt.Topic != "seatsync.doc.guests.g1" {
			t.Errorf("evt = %+v", evt)
		}
		if string(evt.Data) != `{"kind":"set"}` {
			t.Errorf("data = %s", evt.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// Drain; the channel must eventually close.
			for range ch {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel never closed after cancel")
	}
}

func TestHTTPClient_WatchRejected(t *testing.T) {
	h := &testHandler{statusCode: http.StatusUnauthorized, responseBody: `{"error":"invalid token"}`}
	c := newTestClient(t, h, "")

	_, err := c.Watch(context.Background(), nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}
