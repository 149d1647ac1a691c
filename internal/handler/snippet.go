package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/service"
)

// maxBodySize caps PATCH bodies; the largest legitimate field is the code
// itself, which the service bounds separately.
const maxBodySize = 1 << 20

// SnippetHandler manages CRUD for snippets plus the favorite, tag, and
// public-sharing sub-resources.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns every visible snippet in the aggregated shape.
//
// HTTP: GET /api/snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.snippets.List(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snippets": snippets})
}

// HandleGet returns one snippet. Public sharing reads through this path, so
// it is not owner-scoped; a missing id is the only 404 in the API.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.Get(r.Context(), r.PathValue("id"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snippet": snippet})
}

type createSnippetRequest struct {
	Title       string  `json:"title"`
	Code        string  `json:"code"`
	Language    string  `json:"language"`
	Notes       string  `json:"notes"`
	Readme      *string `json:"readme"`
	Description *string `json:"description"`
	FolderID    *string `json:"folderId"`
}

// HandleCreate saves a new snippet owned by the session user.
//
// HTTP: POST /api/snippets
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, service.CreateSnippetInput{
		Title:       req.Title,
		Code:        req.Code,
		Language:    req.Language,
		Notes:       req.Notes,
		Readme:      req.Readme,
		Description: req.Description,
		FolderID:    req.FolderID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"snippet": snippet})
}

type updateSnippetRequest struct {
	Title       *string   `json:"title"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Notes       *string   `json:"notes"`
	Readme      *string   `json:"readme"`
	Description *string   `json:"description"`
	FolderID    *string   `json:"folderId"`
	IsPublic    *bool     `json:"isPublic"`
	Tags        *[]string `json:"tags"`
	IsFavorite  *bool     `json:"isFavorite"`
}

// HandleUpdate applies the aggregate snippet update. The body is decoded
// twice: once into the typed request and once into a key set, because
// "folderId": null and an absent folderId mean different things (move to
// root vs. leave alone) and both decode to a nil pointer.
//
// HTTP: PATCH /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	var req updateSnippetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	_, folderIDSet := raw["folderId"]

	err = h.snippets.Update(r.Context(), userID, r.PathValue("id"), service.SnippetUpdate{
		Title:       req.Title,
		Code:        req.Code,
		Language:    req.Language,
		Notes:       req.Notes,
		Readme:      req.Readme,
		Description: req.Description,
		FolderID:    req.FolderID,
		FolderIDSet: folderIDSet,
		Tags:        req.Tags,
		IsFavorite:  req.IsFavorite,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete removes a snippet owned by the session user.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type setPublicRequest struct {
	IsPublic *bool `json:"isPublic"`
}

// HandleSetPublic flips the public flag and returns the updated snippet.
// The flag must be a real boolean; a missing or mistyped value is rejected
// before any store call.
//
// HTTP: PATCH /api/snippets/{id}/public
func (h *SnippetHandler) HandleSetPublic(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req setPublicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsPublic == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "isPublic must be a boolean"})
		return
	}

	snippet, err := h.snippets.SetPublic(r.Context(), userID, r.PathValue("id"), *req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snippet": snippet})
}

// HandleAddFavorite marks the snippet as a favorite of the session user.
// Favoriting twice through this endpoint is an error; the aggregate PATCH
// path is the idempotent one.
//
// HTTP: POST /api/snippets/{id}/favorite
func (h *SnippetHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.AddFavorite(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleRemoveFavorite unmarks the favorite; absent favorites succeed.
//
// HTTP: DELETE /api/snippets/{id}/favorite
func (h *SnippetHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.RemoveFavorite(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type addTagsRequest struct {
	TagIDs []string `json:"tagIds"`
}

// HandleAddTags associates tags with the snippet, idempotently.
//
// HTTP: POST /api/snippets/{id}/tags
func (h *SnippetHandler) HandleAddTags(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	if err := h.snippets.AddTags(r.Context(), userID, r.PathValue("id"), req.TagIDs); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type removeTagRequest struct {
	TagID string `json:"tagId"`
}

// HandleRemoveTag removes one tag association. The tag id travels in the
// body, not the path.
//
// HTTP: DELETE /api/snippets/{id}/tags
func (h *SnippetHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req removeTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	err := h.snippets.RemoveTag(r.Context(), userID, r.PathValue("id"), req.TagID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
