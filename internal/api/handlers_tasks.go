package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	respond "github.com/tabvault/tabvault/server/internal/api/respond"
	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/services"
)

type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

// CreateTask POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var t model.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.CreateTask(r.Context(), &t)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListTasks GET /api/tasks?status=&priority=&tag=&collectionId=&dueBefore=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		out []*model.Task
		err error
	)
	switch {
	case q.Get("status") != "":
		out, err = h.svc.ListTasksByStatus(r.Context(), q.Get("status"))
	case q.Get("priority") != "":
		out, err = h.svc.ListTasksByPriority(r.Context(), q.Get("priority"))
	case q.Get("tag") != "":
		out, err = h.svc.ListTasksByTag(r.Context(), q.Get("tag"))
	case q.Get("collectionId") != "":
		out, err = h.svc.ListTasksByCollection(r.Context(), q.Get("collectionId"))
	case q.Get("dueBefore") != "":
		var by time.Time
		by, err = time.Parse(time.RFC3339, q.Get("dueBefore"))
		if err != nil {
			respond.WriteBadRequest(w, "dueBefore must be RFC 3339")
			return
		}
		out, err = h.svc.ListTasksDueBefore(r.Context(), by)
	default:
		out, err = h.svc.ListTasks(r.Context())
	}
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"tasks": out, "count": len(out)})
}

// GetTask GET /api/tasks/{taskId}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetTask(r.Context(), mux.Vars(r)["taskId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateTask PUT /api/tasks/{taskId}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var t model.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	t.TaskID = mux.Vars(r)["taskId"]
	out, err := h.svc.UpdateTask(r.Context(), &t)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// AddComment POST /api/tasks/{taskId}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.AddComment(r.Context(), mux.Vars(r)["taskId"], req.Text)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteTask DELETE /api/tasks/{taskId}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), mux.Vars(r)["taskId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
