package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/docs/{collection}", s.handleCreateDoc)
	mux.HandleFunc("GET /v1/docs/{collection}", s.handleListDocs)
	mux.HandleFunc("GET /v1/docs/{collection}/nearby", s.handleNearby)
	mux.HandleFunc("GET /v1/docs/{collection}/{id}", s.handleGetDoc)
	mux.HandleFunc("PUT /v1/docs/{collection}/{id}", s.handleSetDoc)
	mux.HandleFunc("PATCH /v1/docs/{collection}/{id}", s.handleUpdateDoc)
	mux.HandleFunc("DELETE /v1/docs/{collection}/{id}", s.handleDeleteDoc)
	mux.HandleFunc("POST /v1/backup", s.handleBackup)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateDoc handles POST /v1/docs/{collection}. The body is the
// field map; a fresh document ID is allocated and returned.
func (s *Server) handleCreateDoc(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if err := validateFields(collection, fields); err != nil {
		writeStoreError(w, err)
		return
	}

	id := s.store.AllocateID()
	if err := s.store.Set(r.Context(), collection, id, fields, false); err != nil {
		writeStoreError(w, err)
		return
	}

	snap, err := s.store.Get(r.Context(), collection, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.Document)
}

// handleListDocs handles GET /v1/docs/{collection}.
func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docs, err := s.store.GetAll(r.Context(), collection)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleNearby handles GET /v1/docs/{collection}/nearby?lat=&lng=&radius=.
// radius is in meters.
func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	radius, radErr := strconv.ParseFloat(q.Get("radius"), 64)
	if latErr != nil || lngErr != nil || radErr != nil {
		writeError(w, http.StatusBadRequest, "lat, lng and radius query parameters are required")
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radius <= 0 {
		writeError(w, http.StatusBadRequest, "lat, lng or radius out of range")
		return
	}

	docs, err := docstore.QueryByRadius(r.Context(), s.store, collection, lat, lng, radius)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDoc handles GET /v1/docs/{collection}/{id}.
func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), r.PathValue("collection"), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Document)
}

// handleSetDoc handles PUT /v1/docs/{collection}/{id}. The optional
// merge query parameter defaults to true; merge=false replaces the
// document wholesale.
func (s *Server) handleSetDoc(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	merge := true
	if v := r.URL.Query().Get("merge"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "merge must be a boolean")
			return
		}
		merge = parsed
	}

	collection, id := r.PathValue("collection"), r.PathValue("id")
	if !merge {
		// A replace write is a full record; validate it as one.
		if err := validateFields(collection, fields); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if err := s.store.Set(r.Context(), collection, id, fields, merge); err != nil {
		writeStoreError(w, err)
		return
	}

	snap, err := s.store.Get(r.Context(), collection, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Document)
}

// handleUpdateDoc handles PATCH /v1/docs/{collection}/{id}: a partial
// field patch against an existing document.
func (s *Server) handleUpdateDoc(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "patch body must contain at least one field")
		return
	}

	collection, id := r.PathValue("collection"), r.PathValue("id")
	if err := s.store.Update(r.Context(), collection, id, fields); err != nil {
		writeStoreError(w, err)
		return
	}

	snap, err := s.store.Get(r.Context(), collection, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Document)
}

// handleDeleteDoc handles DELETE /v1/docs/{collection}/{id}. Deleting a
// missing document succeeds.
func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("collection"), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBackup handles POST /v1/backup: runs one backup cycle now.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	if err := s.backup.RunOnce(r.Context()); err != nil {
		slog.Error("manual backup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeFields reads a JSON object body. On failure it writes a 400 and
// returns ok=false.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	fields := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object")
			return nil, false
		}
	}
	return fields, true
}

// validateFields applies record-level validation to full writes into
// the collections with known schemas. Unknown collections pass.
func validateFields(collection string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	switch collection {
	case "guests":
		var g model.Guest
		if json.Unmarshal(data, &g) != nil {
			return nil
		}
		return model.ValidateGuest(&g)
	case "tables":
		var t model.Table
		if json.Unmarshal(data, &t) != nil {
			return nil
		}
		return model.ValidateTable(&t)
	}
	return nil
}

// writeStoreError maps store errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Errors,
		})
	case docstore.IsDecodeError(err):
		slog.Error("stored document failed to decode", "error", err)
		writeError(w, http.StatusInternalServerError, "stored document is corrupt")
	case docstore.IsTransportError(err):
		writeError(w, http.StatusBadGateway, "document store unavailable")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
