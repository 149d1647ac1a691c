package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/repository"
	"github.com/sakif/snipy/internal/service"
)

// FolderHandler manages folder CRUD.
type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

// HandleList returns every visible folder.
//
// HTTP: GET /api/folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	folders, err := h.folders.List(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	Color    *string `json:"color"`
}

// HandleCreate saves a new folder owned by the session user.
//
// HTTP: POST /api/folders
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	folder, err := h.folders.Create(r.Context(), userID, service.CreateFolderInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Color:    req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"folder": folder})
}

type updateFolderRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parentId"`
	Color    *string `json:"color"`
}

// HandleUpdate applies a sparse folder patch. Like the snippet PATCH, the
// body is inspected for key presence so "parentId": null (promote to root)
// and an absent parentId are told apart.
//
// HTTP: PATCH /api/folders/{id}
func (h *FolderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	var req updateFolderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}
	_, parentIDSet := raw["parentId"]

	folder, err := h.folders.Update(r.Context(), userID, r.PathValue("id"), repository.FolderPatch{
		Name:        req.Name,
		ParentID:    req.ParentID,
		ParentIDSet: parentIDSet,
		Color:       req.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"folder": folder})
}

// HandleDelete removes a folder. Snippets filed in it are moved back to the
// root first, never deleted with it.
//
// HTTP: DELETE /api/folders/{id}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.folders.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
