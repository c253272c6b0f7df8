package mood

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	journalService "github.com/mindease/backend/internal/service/journal"
	moodService "github.com/mindease/backend/internal/service/mood"
	"github.com/mindease/backend/pkg/utils"
)

// Handler serves the mood log, weekly summary and journal endpoints.
type Handler struct {
	moods   *moodService.Service
	journal *journalService.Service
}

func New(moods *moodService.Service, journal *journalService.Service) *Handler {
	return &Handler{moods: moods, journal: journal}
}

// RegisterRoutes mounts the routes on the /api sub-router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/moods", func(r chi.Router) {
		r.Post("/", h.handleLogMood)
		r.Get("/", h.handleListMoods)
		r.Get("/summary", h.handleSummary)
	})

	r.Route("/journal", func(r chi.Router) {
		r.Post("/session", h.handleCreateSession)
		r.Post("/{sessionID}", h.handleAddEntry)
		r.Get("/{sessionID}", h.handleListEntries)
	})
}

func (h *Handler) handleLogMood(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood string `json:"mood"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.moods.Log(r.Context(), payload.Mood, payload.Note)
	if err != nil {
		if errors.Is(err, moodService.ErrUnknownMood) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to log mood", slog.Any("error", err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to save mood")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleListMoods(w http.ResponseWriter, r *http.Request) {
	entries, err := h.moods.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load mood log", slog.Any("error", err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load moods")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.moods.WeeklySummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to summarize mood log", slog.Any("error", err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.journal.CreateSession(r.Context())
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.journal.Add(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	switch {
	case errors.Is(err, journalService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, journalService.ErrEmptyEntry):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.List(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, journalService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load entries")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}
