// Package handler contains the HTTP layer: request parsing, response
// writing, and nothing else. Business rules live in the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/auth"
	"github.com/sakif/linkpage/internal/service"
)

// LinkHandler exposes the authenticated link CRUD + reorder API.
//
// Every route here sits behind auth.RequireAuth, so the middleware has
// already resolved the session. The handler's only identity job is reading
// the userID out of the context and passing it DOWN as an explicit argument —
// ids in the URL or body are never trusted to establish ownership.
type LinkHandler struct {
	links  *service.LinkService
	logger *slog.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(links *service.LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger}
}

// createLinkRequest is the body for POST /api/links.
type createLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// reorderRequest is the body for PUT /api/links/reorder. Each entry carries
// at least an id; the wire shape mirrors what the list endpoint returned so
// the editor can send its working array straight back.
type reorderRequest struct {
	Links []struct {
		ID int64 `json:"id"`
	} `json:"links"`
}

// HandleCreate saves a new link at the end of the caller's list.
//
// HTTP: POST /api/links
// BODY: {"title": "Blog", "url": "https://a.example"}
// → 200 with the created link (id and order assigned by the server)
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid create link JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	link, err := h.links.Create(r.Context(), ownerID, req.Title, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// HandleList returns the caller's links sorted by display order.
//
// HTTP: GET /api/links → 200 with a JSON array (possibly empty, never null)
func (h *LinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	links, err := h.links.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, links)
}

// HandleUpdate edits a link's title and URL.
//
// HTTP: PUT /api/links/{id}
// → 200 with the updated link, 403 if it belongs to someone else, 404 if
// it doesn't exist.
func (h *LinkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := parseLinkID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	link, err := h.links.Update(r.Context(), ownerID, id, req.Title, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// HandleDelete removes the caller's link with the given id.
//
// HTTP: DELETE /api/links/{id} → 204
//
// 204 comes back even when the id doesn't exist or belongs to someone else —
// the delete is a filtered no-op in that case (see service.LinkService.Delete
// for why). A non-integer id is the only client error: 400.
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	id, err := parseLinkID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.links.Delete(r.Context(), ownerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReorder rewrites the caller's link order to match the submitted
// sequence.
//
// HTTP: PUT /api/links/reorder
// BODY: {"links": [{"id": 3}, {"id": 1}, {"id": 2}]}
// → 200 on success; 400 if any id isn't the caller's (nothing applied)
func (h *LinkHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	ids := make([]int64, len(req.Links))
	for i, l := range req.Links {
		ids[i] = l.ID
	}

	if err := h.links.Reorder(r.Context(), ownerID, ids); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// parseLinkID parses the {id} path segment. Link ids are positive integers;
// anything else is the client's mistake and maps to 400.
func parseLinkID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "link id must be a positive integer")
	}
	return id, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "valid authentication required",
	})
}
