package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/yair/whats-on/pkg/autocomplete"
	"github.com/yair/whats-on/pkg/domain"
	"github.com/yair/whats-on/pkg/search"
)

type ViewHandler struct {
	list     *EventListController
	cities   *autocomplete.CityAutocomplete
	notices  *NoticeBoard
	sessions domain.SessionRepository
}

type ViewConfig struct {
	List     *EventListController
	Cities   *autocomplete.CityAutocomplete
	Notices  *NoticeBoard
	Sessions domain.SessionRepository
}

func NewViewHandler(config ViewConfig) *ViewHandler {
	return &ViewHandler{
		list:     config.List,
		cities:   config.Cities,
		notices:  config.Notices,
		sessions: config.Sessions,
	}
}

func (h *ViewHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/events", h.ListEvents).Methods("GET")
	router.HandleFunc("/api/events/reset", h.ResetFilters).Methods("POST")
	router.HandleFunc("/api/events/{id:[0-9]+}/like", h.ToggleLike).Methods("POST")
	router.HandleFunc("/api/events/{id:[0-9]+}", h.DeleteEvent).Methods("DELETE")
	router.HandleFunc("/api/cities", h.Cities).Methods("GET")
	router.HandleFunc("/api/cities/blur", h.BlurCity).Methods("POST")
	router.HandleFunc("/api/cities/select", h.SelectCity).Methods("POST")
	router.HandleFunc("/api/cities/locate", h.LocateCity).Methods("POST")
	router.HandleFunc("/api/search", h.Search).Methods("POST")
	router.HandleFunc("/api/notices", h.Notices).Methods("GET")
	router.HandleFunc("/api/session", h.PutSession).Methods("PUT")
	router.HandleFunc("/api/session", h.DeleteSession).Methods("DELETE")
}

func (h *ViewHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	filters := search.ParseFilters(r.URL.Query())
	if err := h.list.Refresh(ctx, filters); err != nil {
		var validationErr domain.ValidationError
		if errors.As(err, &validationErr) {
			h.respondWithError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		// A failed refresh keeps showing the previous list.
	}

	h.respondWithJSON(w, http.StatusOK, h.list.View())
}

func (h *ViewHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	h.list.ResetFilters(ctx)
	h.respondWithJSON(w, http.StatusOK, h.list.View())
}

func (h *ViewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	card, ok := h.card(w, r)
	if !ok {
		return
	}

	if err := card.ToggleLike(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrLoginRequired):
			h.respondWithError(w, http.StatusUnauthorized, MsgLoginToLike)
		case errors.Is(err, domain.ErrInFlight):
			h.respondWithError(w, http.StatusConflict, "like already in progress")
		case errors.Is(err, domain.ErrEventNotFound):
			h.respondWithError(w, http.StatusNotFound, "event not found")
		default:
			h.respondWithError(w, http.StatusServiceUnavailable, "external service unavailable")
		}
		return
	}

	h.respondWithJSON(w, http.StatusOK, card.View())
}

type deleteResponse struct {
	Notices []domain.Notice `json:"notices"`
	View    ListView        `json:"view"`
}

func (h *ViewHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	card, ok := h.card(w, r)
	if !ok {
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"
	err := card.Delete(ctx, ConfirmFunc(func(string) bool { return confirmed }))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotOwner):
			h.respondWithError(w, http.StatusForbidden, "only the event owner can delete it")
		case errors.Is(err, domain.ErrNotConfirmed):
			h.respondWithError(w, http.StatusPreconditionRequired, MsgConfirmDelete)
		case errors.Is(err, domain.ErrLoginRequired):
			h.respondWithError(w, http.StatusUnauthorized, MsgNoAccessToken)
		case errors.Is(err, domain.ErrInFlight):
			h.respondWithError(w, http.StatusConflict, "delete already in progress")
		default:
			h.respondWithJSON(w, http.StatusBadGateway, deleteResponse{
				Notices: h.notices.Drain(),
				View:    h.list.View(),
			})
		}
		return
	}

	h.respondWithJSON(w, http.StatusOK, deleteResponse{
		Notices: h.notices.Drain(),
		View:    h.list.View(),
	})
}

type cityView struct {
	Value    string                `json:"value"`
	State    string                `json:"state"`
	Dropdown autocomplete.Dropdown `json:"dropdown"`
}

func (h *ViewHandler) Cities(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		h.cities.Input(q[0])
	} else {
		h.cities.Focus()
	}

	h.respondWithJSON(w, http.StatusOK, h.cityView())
}

func (h *ViewHandler) BlurCity(w http.ResponseWriter, r *http.Request) {
	h.cities.Blur()
	h.respondWithJSON(w, http.StatusOK, h.cityView())
}

func (h *ViewHandler) SelectCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.cities.Select(body.City)
	h.respondWithJSON(w, http.StatusOK, h.cityView())
}

// LocateCity resolves a position reported by the shell. A body without
// coordinates means the browser has no geolocation.
func (h *ViewHandler) LocateCity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var body struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var locator domain.Locator
	if body.Lat != nil && body.Lon != nil {
		locator = autocomplete.FixedPosition{Lat: *body.Lat, Lon: *body.Lon}
	}

	if err := h.cities.LocateWith(ctx, locator); errors.Is(err, domain.ErrInFlight) {
		h.respondWithError(w, http.StatusConflict, "location lookup already in progress")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.cityView())
}

func (h *ViewHandler) Search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Search string `json:"search"`
		City   string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	redirect, err := SubmitSearch(body.Search, body.City)
	if err != nil {
		var fieldErrs domain.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields[fe.Field] = fe.Message
			}
			h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  MsgEnterEventOrCity,
				"fields": fields,
			})
			return
		}
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"redirect": redirect})
}

func (h *ViewHandler) Notices(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.notices.Drain())
}

type sessionView struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"display_name,omitempty"`
}

func (h *ViewHandler) PutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var session domain.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Save(ctx, session); err != nil {
		log.Printf("Error saving session: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Read back so an expired token is dropped the same way as on startup.
	stored, err := h.sessions.Load(ctx)
	if err != nil {
		log.Printf("Error loading session: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.switchSession(ctx, stored)
	h.respondWithJSON(w, http.StatusOK, sessionView{
		Authenticated: stored.HasToken(),
		DisplayName:   stored.DisplayName(),
	})
}

func (h *ViewHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.sessions.Clear(ctx); err != nil {
		log.Printf("Error clearing session: %v", err)
		h.respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.switchSession(ctx, domain.Session{})
	h.respondWithJSON(w, http.StatusOK, sessionView{})
}

// switchSession hands the new viewer to the listing and refetches so the
// liked flags match them.
func (h *ViewHandler) switchSession(ctx context.Context, session domain.Session) {
	h.list.SetSession(session)
	h.list.Reload(ctx)
}

func (h *ViewHandler) card(w http.ResponseWriter, r *http.Request) (*EventCardController, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid event id")
		return nil, false
	}

	card, err := h.list.Card(id)
	if err != nil {
		h.respondWithError(w, http.StatusNotFound, "event not found")
		return nil, false
	}
	return card, true
}

func (h *ViewHandler) cityView() cityView {
	return cityView{
		Value:    h.cities.Value(),
		State:    h.cities.State().String(),
		Dropdown: h.cities.Dropdown(),
	}
}

func (h *ViewHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

func (h *ViewHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
