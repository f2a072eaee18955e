package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/dedup"
	"github.com/tabvault/tabvault/server/internal/engine"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/snooze"
	"github.com/tabvault/tabvault/server/internal/windows"
)

// OpsHandler exposes the orchestration pipelines: capture, restore, snooze,
// wake, and dedupe. Every endpoint returns a structured result with a
// success flag and optional errors/warnings arrays, so callers can tell
// "nothing happened" from "some things happened, here's what failed".
type OpsHandler struct {
	engine  *engine.Service
	snooze  *snooze.Service
	dedup   *dedup.Service
	windows *windows.Service
}

func NewOpsHandler(eng *engine.Service, sn *snooze.Service, dd *dedup.Service, ws *windows.Service) *OpsHandler {
	return &OpsHandler{engine: eng, snooze: sn, dedup: dd, windows: ws}
}

// CaptureWindow POST /api/windows/{windowId}/capture
func (h *OpsHandler) CaptureWindow(w http.ResponseWriter, r *http.Request) {
	windowID, err := strconv.Atoi(mux.Vars(r)["windowId"])
	if err != nil {
		respond.WriteBadRequest(w, "windowId must be numeric")
		return
	}
	var req engine.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.engine.CaptureWindow(r.Context(), windowID, req)
	if err != nil {
		if errors.Is(err, engine.ErrNoCapturableTabs) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// RestoreCollection POST /api/collections/{collectionId}/restore
func (h *OpsHandler) RestoreCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WindowID *int `json:"windowId"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "Invalid JSON")
			return
		}
	}
	out, err := h.engine.RestoreCollection(r.Context(), mux.Vars(r)["collectionId"], req.WindowID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// CollectionForWindow GET /api/windows/{windowId}/collection
func (h *OpsHandler) CollectionForWindow(w http.ResponseWriter, r *http.Request) {
	windowID, err := strconv.Atoi(mux.Vars(r)["windowId"])
	if err != nil {
		respond.WriteBadRequest(w, "windowId must be numeric")
		return
	}
	c, err := h.windows.CollectionForWindow(r.Context(), windowID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if c == nil {
		respond.WriteNotFound(w, "window is not bound to a collection")
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// SnoozeTabs POST /api/snooze/tabs
func (h *OpsHandler) SnoozeTabs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TabIDs []int     `json:"tabIds"`
		Wake   time.Time `json:"wake"`
		Reason string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.snooze.SnoozeTabs(r.Context(), req.TabIDs, req.Wake, req.Reason)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// SnoozeWindow POST /api/snooze/window
func (h *OpsHandler) SnoozeWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WindowID int       `json:"windowId"`
		Wake     time.Time `json:"wake"`
		Reason   string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.snooze.SnoozeWindow(r.Context(), req.WindowID, req.Wake, req.Reason)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// ExecuteSnoozeOperations POST /api/snooze/operations
func (h *OpsHandler) ExecuteSnoozeOperations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operations []snooze.Operation `json:"operations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.snooze.ExecuteOperations(r.Context(), req.Operations)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Wake POST /api/snooze/{snoozeId}/wake
// The id may name a window snooze or a single snoozed tab.
func (h *OpsHandler) Wake(w http.ResponseWriter, r *http.Request) {
	snoozeID := mux.Vars(r)["snoozeId"]
	out, err := h.snooze.WakeWindowSnooze(r.Context(), snoozeID)
	if err != nil && errors.Is(err, model.ErrNotFound) {
		out, err = h.snooze.WakeTab(r.Context(), snoozeID)
	}
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// Deduplicate POST /api/dedupe
func (h *OpsHandler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	var opts dedup.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.dedup.Deduplicate(r.Context(), opts)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
