package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/docstore/docstoretest"
	"github.com/cocobologroup/seatsync/internal/geo"
)

// newTestServer wires a Server over an in-memory store and bus and
// returns the handler plus the store for seeding and assertions.
func newTestServer(t *testing.T, authToken string) (http.Handler, *docstoretest.MemStore) {
	t.Helper()
	bus := docstoretest.NewBus()
	mem := docstoretest.NewMemStore()
	mem.Bus = bus

	srv, err := New(mem, bus, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv.NewHTTPHandler(authToken), mem
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeDoc(t *testing.T, rec *httptest.ResponseRecorder) docstore.Document {
	t.Helper()
	var doc docstore.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v (body %s)", err, rec.Body.String())
	}
	return doc
}

func TestHTTPCreateDoc(t *testing.T) {
	h, mem := newTestServer(t, "")

	rec := doJSON(t, h, http.MethodPost, "/v1/docs/guests", map[string]any{"firstName": "Jane"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decodeDoc(t, rec)
	if doc.ID == "" {
		t.Fatal("no id allocated")
	}
	if doc.Fields["firstName"] != "Jane" {
		t.Errorf("fields = %v", doc.Fields)
	}
	if mem.SetCalls != 1 {
		t.Errorf("SetCalls = %d, want 1", mem.SetCalls)
	}
}

func TestHTTPCreateDoc_ValidationError(t *testing.T) {
	h, mem := newTestServer(t, "")

	rec := doJSON(t, h, http.MethodPost, "/v1/docs/guests", map[string]any{
		"firstName": "Jane",
		"email":     "not-an-email",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	if mem.SetCalls != 0 {
		t.Errorf("invalid document was written, SetCalls = %d", mem.SetCalls)
	}

	var resp struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"Field"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if len(resp.Fields) != 1 || resp.Fields[0].Field != "email" {
		t.Errorf("error body = %s", rec.Body.String())
	}
}

func TestHTTPSetDoc_ReplaceValidatesTable(t *testing.T) {
	h, _ := newTestServer(t, "")

	// Replace with a nameless table must be rejected.
	rec := doJSON(t, h, http.MethodPut, "/v1/docs/tables/t1?merge=false", map[string]any{
		"numChecks": -3,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHTTPGetDoc(t *testing.T) {
	h, mem := newTestServer(t, "")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})

	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests/g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decodeDoc(t, rec)
	if doc.ID != "g1" || doc.Fields["firstName"] != "Jane" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestHTTPGetDoc_NotFound(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHTTPListDocs(t *testing.T) {
	h, mem := newTestServer(t, "")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})
	mem.Seed("guests", "g2", map[string]any{"firstName": "John"})
	mem.Seed("tables", "t1", map[string]any{"name": "12"})

	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var docs []docstore.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
}

func TestHTTPListDocs_EmptyCollectionIsArray(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want JSON array", got)
	}
}

func TestHTTPSetDoc_MergeDefault(t *testing.T) {
	h, _ := newTestServer(t, "")
	doJSON(t, h, http.MethodPut, "/v1/docs/guests/g1", map[string]any{"firstName": "Jane", "hometown": "Austin"})

	rec := doJSON(t, h, http.MethodPut, "/v1/docs/guests/g1", map[string]any{"firstName": "Janet"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decodeDoc(t, rec)
	if doc.Fields["firstName"] != "Janet" || doc.Fields["hometown"] != "Austin" {
		t.Errorf("merge lost fields: %v", doc.Fields)
	}
}

func TestHTTPSetDoc_Replace(t *testing.T) {
	h, _ := newTestServer(t, "")
	doJSON(t, h, http.MethodPut, "/v1/docs/guests/g1", map[string]any{"firstName": "Jane", "hometown": "Austin"})

	rec := doJSON(t, h, http.MethodPut, "/v1/docs/guests/g1?merge=false", map[string]any{"firstName": "Janet"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := decodeDoc(t, rec)
	if _, ok := doc.Fields["hometown"]; ok {
		t.Errorf("replace kept stale field: %v", doc.Fields)
	}
}

func TestHTTPUpdateDoc(t *testing.T) {
	h, mem := newTestServer(t, "")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane", "isEmailVerified": false})

	rec := doJSON(t, h, http.MethodPatch, "/v1/docs/guests/g1", map[string]any{"isEmailVerified": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decodeDoc(t, rec)
	if doc.Fields["isEmailVerified"] != true || doc.Fields["firstName"] != "Jane" {
		t.Errorf("fields = %v", doc.Fields)
	}
}

func TestHTTPUpdateDoc_NotFound(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodPatch, "/v1/docs/guests/missing", map[string]any{"firstName": "X"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHTTPUpdateDoc_EmptyPatchRejected(t *testing.T) {
	h, mem := newTestServer(t, "")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})

	rec := doJSON(t, h, http.MethodPatch, "/v1/docs/guests/g1", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHTTPDeleteDoc(t *testing.T) {
	h, mem := newTestServer(t, "")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})

	rec := doJSON(t, h, http.MethodDelete, "/v1/docs/guests/g1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	// Deleting a missing document is still a success.
	rec = doJSON(t, h, http.MethodDelete, "/v1/docs/guests/g1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestHTTPNearby(t *testing.T) {
	h, mem := newTestServer(t, "")
	// Bryant Park and a point ~90m away; Brooklyn is ~9km out.
	mem.Seed("guests", "near", map[string]any{
		"firstName": "Jane",
		"location":  map[string]any{"geohash": geo.Encode(40.7540, -73.9840), "lat": 40.7540, "lng": -73.9840},
	})
	mem.Seed("guests", "far", map[string]any{
		"firstName": "John",
		"location":  map[string]any{"geohash": geo.Encode(40.6782, -73.9442), "lat": 40.6782, "lng": -73.9442},
	})

	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests/nearby?lat=40.7536&lng=-73.9832&radius=500", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var docs []docstore.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "near" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestHTTPNearby_MissingParams(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests/nearby?lat=40.75", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHTTPBackup_Unconfigured(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodPost, "/v1/backup", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHTTPHealth(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h, mem := newTestServer(t, "sekrit")
	mem.Seed("guests", "g1", map[string]any{"firstName": "Jane"})

	// No token.
	rec := doJSON(t, h, http.MethodGet, "/v1/docs/guests/g1", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/v1/docs/guests/g1", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", rec.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/v1/docs/guests/g1", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("good token: status = %d, want 200", rec.Code)
	}

	// Health stays open.
	rec = doJSON(t, h, http.MethodGet, "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status = %d, want 200", rec.Code)
	}
}
