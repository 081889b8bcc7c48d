// Package chat exposes the support conversation over HTTP.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chatService "github.com/haven-space/sanctum-backend/internal/service/chat"
	"github.com/haven-space/sanctum-backend/pkg/utils"
)

// Handler serves the chat routes.
type Handler struct {
	svc *chatService.Service
}

func New(svc *chatService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the chat routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/session", h.handleNewSession)
	r.Post("/chat/message", h.handleMessage)
	r.Get("/chat/history/{sessionID}", h.handleHistory)
	r.Delete("/chat/session/{sessionID}", h.handleEndSession)
	r.Get("/chat/breathing-exercise", h.handleBreathingExercise)
	r.Get("/chat/grounding", h.handleGrounding)
}

func (h *Handler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.svc.NewSession())
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exchange, err := h.svc.SendMessage(r.Context(), payload.SessionID, payload.Message)
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage), errors.Is(err, chatService.ErrMessageTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chatService.ErrBlocked):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Message violates community guidelines",
			"details": "Your message contains content that may be harmful. Please revise and try again.",
			"blocked": true,
		})
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, exchange)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	messages, err := h.svc.History(r.Context(), sessionID, limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  messages,
		"total":     len(messages),
	})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.svc.EndSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Session ended and transcript deleted",
	})
}

func (h *Handler) handleBreathingExercise(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"exercise": h.svc.BreathingExercise(),
		"message":  "Here's a breathing exercise that might help you feel more centered.",
		"tip":      "Find a quiet, comfortable place to practice this exercise.",
	})
}

func (h *Handler) handleGrounding(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"technique": h.svc.GroundingTechnique(),
		"message":   "Try this grounding technique to help you feel more present and calm.",
		"tip":       "Practice these techniques regularly, not just during difficult moments.",
	})
}
