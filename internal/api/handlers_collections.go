package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/services"
	"github.com/tabvault/tabvault/server/internal/windows"
)

// CollectionHandler is a thin HTTP transport over CollectionService.
type CollectionHandler struct {
	svc     *services.CollectionService
	windows *windows.Service
}

func NewCollectionHandler(svc *services.CollectionService, ws *windows.Service) *CollectionHandler {
	return &CollectionHandler{svc: svc, windows: ws}
}

// CreateCollection POST /api/collections
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var c model.Collection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.CreateCollection(r.Context(), &c)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListCollections GET /api/collections?tag=&active=
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	var (
		out []*model.Collection
		err error
	)
	switch {
	case r.URL.Query().Get("tag") != "":
		out, err = h.svc.ListCollectionsByTag(r.Context(), r.URL.Query().Get("tag"))
	case r.URL.Query().Get("active") == "true":
		out, err = h.svc.ListActiveCollections(r.Context())
	default:
		out, err = h.svc.ListCollections(r.Context())
	}
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"collections": out, "count": len(out)})
}

// GetCollection GET /api/collections/{collectionId}
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetCollection(r.Context(), mux.Vars(r)["collectionId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateCollection PUT /api/collections/{collectionId}
func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var c model.Collection
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	c.CollectionID = mux.Vars(r)["collectionId"]
	out, err := h.svc.UpdateCollection(r.Context(), &c)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteCollection DELETE /api/collections/{collectionId}
// A bound collection is unbound before its records are deleted.
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	collectionID := mux.Vars(r)["collectionId"]
	if err := h.windows.Unbind(r.Context(), collectionID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if err := h.svc.DeleteCollection(r.Context(), collectionID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
