package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tasktempo/internal/model"
)

// Handler exposes the task service over a JSON API. The presentation layer
// renders whatever list comes back; every mutation returns the full list.
type Handler struct {
	svc             *Service
	defaultSyncMode model.SyncMode
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, defaultSyncMode: model.SyncNone}
}

func (h *Handler) SetDefaultSyncMode(mode model.SyncMode) {
	if mode.Valid() {
		h.defaultSyncMode = mode
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func (h *Handler) writeResult(w http.ResponseWriter, tasks []model.Task, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCommentNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyTitle):
		writeErr(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
	}
}

// Tasks handles GET /api/tasks and POST /api/tasks.
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"tasks": h.svc.Tasks()})
	case http.MethodPost:
		var in NewTaskInput
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		tasks, err := h.svc.AddTask(in)
		h.writeResult(w, tasks, err)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Update handles POST /api/tasks/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID int64 `json:"id"`
		Patch
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.UpdateTaskFields(body.ID, body.Patch)
	h.writeResult(w, tasks, err)
}

// Delete handles POST /api/tasks/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID int64 `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.DeleteTask(body.ID)
	h.writeResult(w, tasks, err)
}

// Toggle handles POST /api/tasks/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID   int64  `json:"id"`
		Date string `json:"date,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.ToggleTaskStatus(body.ID, body.Date)
	h.writeResult(w, tasks, err)
}

// Pin handles POST /api/tasks/pin.
func (h *Handler) Pin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID int64 `json:"id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.TogglePin(body.ID)
	h.writeResult(w, tasks, err)
}

// Stages handles POST /api/tasks/stages.
func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ID       int64             `json:"id"`
		Date     string            `json:"date,omitempty"`
		Stages   []model.TaskStage `json:"stages"`
		SyncMode model.SyncMode    `json:"syncMode,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode := body.SyncMode
	if mode == "" {
		mode = h.defaultSyncMode
	}
	if !mode.Valid() {
		writeErr(w, http.StatusBadRequest, "syncMode must be one of none|all|future")
		return
	}
	tasks, err := h.svc.ApplyStageEdit(body.ID, body.Date, body.Stages, mode)
	h.writeResult(w, tasks, err)
}

// Comments handles POST /api/tasks/comments.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		TaskID    int64  `json:"taskId"`
		CommentID string `json:"commentId,omitempty"`
		Text      string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.AddOrEditComment(body.TaskID, body.CommentID, body.Text)
	h.writeResult(w, tasks, err)
}

// DeleteComment handles POST /api/tasks/comments/delete.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		TaskID    int64  `json:"taskId"`
		CommentID string `json:"commentId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tasks, err := h.svc.DeleteComment(body.TaskID, body.CommentID)
	h.writeResult(w, tasks, err)
}

// Calendar handles GET /api/tasks/calendar?id=N.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "id query parameter required")
		return
	}
	var found *model.Task
	for _, t := range h.svc.Tasks() {
		if t.ID == id {
			tt := t
			found = &tt
			break
		}
	}
	if found == nil {
		writeErr(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	ics, err := BuildTaskCalendarICS(*found, h.svc.clk.Now())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="task.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}
