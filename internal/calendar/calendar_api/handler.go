package calendar_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

type Handler struct {
	Service *calendar.CalendarService
}

func NewHandler(service *calendar.CalendarService) *Handler {
	return &Handler{Service: service}
}

// Routes mounts the API under the given router:
//
//	GET    /user             list users
//	GET    /user/{username}  fetch one user
//	POST   /user             create a user
//	GET    /event            list events (optional ?from=&to= unix seconds)
//	POST   /event            create an event
//	GET    /event/{id}       fetch one event
//	PUT    /event/{id}       partially update an event
//	DELETE /event/{id}       delete an event
func (h *Handler) Routes(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/{username}", h.GetUser)
	})
	r.Route("/event", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
}

// ---------------- USERS ----------------

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.Service.GetUser(r.Context(), username)
	if err != nil {
		h.writeError(w, "User not found", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.NewUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", utils.Validation("body", err.Error()))
		return
	}
	user, err := h.Service.CreateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ---------------- EVENTS ----------------

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	win, err := parseWindow(r)
	if err != nil {
		h.writeError(w, "Invalid time window", err)
		return
	}
	events, err := h.Service.ListEvents(r.Context(), win)
	if err != nil {
		h.writeError(w, "Failed to list events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseEventID(r)
	if err != nil {
		h.writeError(w, "Invalid event id", err)
		return
	}
	event, err := h.Service.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, "Event not found", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.NewEvent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", utils.Validation("body", err.Error()))
		return
	}
	event, err := h.Service.CreateEvent(r.Context(), in)
	if err != nil {
		h.writeError(w, "Failed to create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseEventID(r)
	if err != nil {
		h.writeError(w, "Invalid event id", err)
		return
	}
	var patch models.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Invalid request body", utils.Validation("body", err.Error()))
		return
	}
	event, err := h.Service.UpdateEvent(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, "Failed to update event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseEventID(r)
	if err != nil {
		h.writeError(w, "Invalid event id", err)
		return
	}
	if err := h.Service.DeleteEvent(r.Context(), id); err != nil {
		h.writeError(w, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- HELPERS ----------------

func parseEventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, utils.Validation("id", "must be an integer")
	}
	return id, nil
}

// parseWindow reads the optional ?from=&to= pair. Both bounds must be given
// together.
func parseWindow(r *http.Request) (*models.TimeWindow, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}
	if fromStr == "" || toStr == "" {
		return nil, utils.Validation("window", "'from' and 'to' must be given together")
	}
	from, err := strconv.ParseInt(fromStr, 10, 64)
	if err != nil {
		return nil, utils.Validation("from", "must be a unix timestamp")
	}
	to, err := strconv.ParseInt(toStr, 10, 64)
	if err != nil {
		return nil, utils.Validation("to", "must be a unix timestamp")
	}
	return &models.TimeWindow{From: from, To: to}, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the typed error taxonomy onto HTTP statuses. Anything
// unrecognised is a storage-level failure and reported as retryable 500.
func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	var verr *utils.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, utils.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrAlreadyExists):
		status = http.StatusConflict
	}
	writeJSON(w, status, utils.ErrorResponse(message, err.Error()))
}
