package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/services"
)

type FolderHandler struct {
	svc *services.FolderService
}

func NewFolderHandler(svc *services.FolderService) *FolderHandler { return &FolderHandler{svc: svc} }

// CreateFolder POST /api/collections/{collectionId}/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var f model.Folder
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	f.CollectionID = mux.Vars(r)["collectionId"]
	out, err := h.svc.CreateFolder(r.Context(), &f)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListFolders GET /api/collections/{collectionId}/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListFolders(r.Context(), mux.Vars(r)["collectionId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"folders": out, "count": len(out)})
}

// GetFolder GET /api/folders/{folderId}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetFolder(r.Context(), mux.Vars(r)["folderId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateFolder PUT /api/folders/{folderId}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var f model.Folder
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	f.FolderID = mux.Vars(r)["folderId"]
	out, err := h.svc.UpdateFolder(r.Context(), &f)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteFolder DELETE /api/folders/{folderId}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteFolder(r.Context(), mux.Vars(r)["folderId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
