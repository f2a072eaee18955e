package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/services"
)

type TabHandler struct {
	svc *services.TabService
}

func NewTabHandler(svc *services.TabService) *TabHandler { return &TabHandler{svc: svc} }

// CreateTab POST /api/collections/{collectionId}/tabs
func (h *TabHandler) CreateTab(w http.ResponseWriter, r *http.Request) {
	var t model.Tab
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	t.CollectionID = mux.Vars(r)["collectionId"]
	out, err := h.svc.CreateTab(r.Context(), &t)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListTabs GET /api/collections/{collectionId}/tabs?folderId=
func (h *TabHandler) ListTabs(w http.ResponseWriter, r *http.Request) {
	var (
		out []*model.Tab
		err error
	)
	if folderID := r.URL.Query().Get("folderId"); folderID != "" {
		out, err = h.svc.ListTabsByFolder(r.Context(), folderID)
	} else {
		out, err = h.svc.ListTabsByCollection(r.Context(), mux.Vars(r)["collectionId"])
	}
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tabs": out, "count": len(out)})
}

// GetTab GET /api/tabs/{tabRecordId}
func (h *TabHandler) GetTab(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetTab(r.Context(), mux.Vars(r)["tabRecordId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateTab PUT /api/tabs/{tabRecordId}
func (h *TabHandler) UpdateTab(w http.ResponseWriter, r *http.Request) {
	var t model.Tab
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	t.TabRecordID = mux.Vars(r)["tabRecordId"]
	out, err := h.svc.UpdateTab(r.Context(), &t)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// MoveTab POST /api/tabs/{tabRecordId}/move
func (h *TabHandler) MoveTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderID *string `json:"folderId"`
		Position int     `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.MoveTab(r.Context(), mux.Vars(r)["tabRecordId"], req.FolderID, req.Position)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteTab DELETE /api/tabs/{tabRecordId}
func (h *TabHandler) DeleteTab(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTab(r.Context(), mux.Vars(r)["tabRecordId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
