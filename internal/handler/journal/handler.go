// Package journal exposes private reflection entries over HTTP.
package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	journalService "github.com/haven-space/sanctum-backend/internal/service/journal"
	"github.com/haven-space/sanctum-backend/pkg/utils"
)

// Handler serves the journal routes.
type Handler struct {
	svc *journalService.Service
}

func New(svc *journalService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the journal routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/journal/entry", h.handleCreate)
	r.Get("/journal/entries/{sessionID}", h.handleEntries)
	r.Get("/journal/entry/{sessionID}/{entryID}", h.handleEntry)
	r.Get("/journal/prompt", h.handlePrompt)
	r.Get("/journal/prompts", h.handlePrompts)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content   string `json:"content"`
		SessionID string `json:"sessionId"`
		Mood      string `json:"mood"`
		Prompt    string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Create(r.Context(), payload.SessionID, payload.Content, payload.Mood, payload.Prompt)
	switch {
	case errors.Is(err, journalService.ErrEmptyContent),
		errors.Is(err, journalService.ErrMissingSession),
		errors.Is(err, journalService.ErrContentTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, journalService.ErrBlocked):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Content violates community guidelines",
			"details": "Journal entry contains content that may be harmful. Please revise and try again.",
			"blocked": true,
		})
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to create journal entry")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"entry":          result.Entry,
		"supportMessage": result.SupportMessage,
	})
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.Entries(r.Context(), sessionID, limit)
	if errors.Is(err, journalService.ErrMissingSession) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch journal entries")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"entries":   result.Entries,
		"stats":     result.Stats,
		"sessionId": sessionID,
	})
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entryID := chi.URLParam(r, "entryID")

	entry, err := h.svc.Entry(r.Context(), sessionID, entryID)
	if errors.Is(err, journalService.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Journal entry not found or expired")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch journal entry")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	prompt := h.svc.GeneratePrompt(r.Context(), r.URL.Query().Get("mood"))

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"prompt":    prompt.Prompt,
		"category":  prompt.Category,
		"mood":      prompt.Mood,
		"fallback":  prompt.Fallback,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) handlePrompts(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	prompts := h.svc.GeneratePrompts(r.Context(), r.URL.Query().Get("mood"), count)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"prompts":   prompts,
		"count":     len(prompts),
		"timestamp": time.Now().UTC(),
	})
}
