// Package mood exposes mood check-ins and analytics over HTTP.
package mood

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	moodModel "github.com/haven-space/sanctum-backend/internal/model/mood"
	moodService "github.com/haven-space/sanctum-backend/internal/service/mood"
	"github.com/haven-space/sanctum-backend/pkg/utils"
)

// Handler serves the mood routes.
type Handler struct {
	svc *moodService.Service
}

func New(svc *moodService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the mood routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mood/checkin", h.handleCheckIn)
	r.Get("/mood/history/{sessionID}", h.handleHistory)
	r.Get("/mood/analytics/{sessionID}", h.handleAnalytics)
	r.Get("/mood/options", h.handleOptions)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mood      string `json:"mood"`
		Intensity int    `json:"intensity"`
		Notes     string `json:"notes"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.CheckIn(r.Context(), payload.SessionID, payload.Mood, payload.Intensity, payload.Notes)
	switch {
	case errors.Is(err, moodService.ErrInvalidMood):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "Invalid mood",
			"validMoods": moodModel.ValidMoods(),
		})
		return
	case errors.Is(err, moodService.ErrMissingMood), errors.Is(err, moodService.ErrMissingSession):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to record mood check-in")
		return
	}

	response := map[string]any{
		"success": true,
		"entry":   result.Entry,
		"trend":   result.Trend,
		"insight": result.Insight,
	}
	if result.Sentiment != nil {
		response["sentiment"] = result.Sentiment
	}
	utils.RespondJSON(w, http.StatusCreated, response)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	result, err := h.svc.History(r.Context(), sessionID, days, limit)
	if errors.Is(err, moodService.ErrMissingSession) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch mood history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	period, _ := strconv.Atoi(r.URL.Query().Get("period"))

	result, err := h.svc.Analytics(r.Context(), sessionID, period)
	if errors.Is(err, moodService.ErrMissingSession) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate analytics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

// moodOption is one selectable mood for clients building a check-in UI.
type moodOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

var moodOptions = []moodOption{
	{Value: "very_happy", Label: "Very Happy", Emoji: "😄", Color: "#4CAF50"},
	{Value: "happy", Label: "Happy", Emoji: "😊", Color: "#8BC34A"},
	{Value: "content", Label: "Content", Emoji: "😌", Color: "#CDDC39"},
	{Value: "neutral", Label: "Neutral", Emoji: "😐", Color: "#FFC107"},
	{Value: "sad", Label: "Sad", Emoji: "😢", Color: "#FF9800"},
	{Value: "very_sad", Label: "Very Sad", Emoji: "😭", Color: "#F44336"},
	{Value: "excited", Label: "Excited", Emoji: "🤩", Color: "#9C27B0"},
	{Value: "calm", Label: "Calm", Emoji: "😇", Color: "#00BCD4"},
	{Value: "anxious", Label: "Anxious", Emoji: "😰", Color: "#795548"},
	{Value: "angry", Label: "Angry", Emoji: "😠", Color: "#D32F2F"},
	{Value: "frustrated", Label: "Frustrated", Emoji: "😤", Color: "#E64A19"},
	{Value: "grateful", Label: "Grateful", Emoji: "🙏", Color: "#689F38"},
	{Value: "hopeful", Label: "Hopeful", Emoji: "🌟", Color: "#1976D2"},
	{Value: "overwhelmed", Label: "Overwhelmed", Emoji: "🤯", Color: "#7B1FA2"},
	{Value: "peaceful", Label: "Peaceful", Emoji: "☮️", Color: "#388E3C"},
	{Value: "energetic", Label: "Energetic", Emoji: "⚡", Color: "#FFB300"},
	{Value: "tired", Label: "Tired", Emoji: "😴", Color: "#546E7A"},
	{Value: "stressed", Label: "Stressed", Emoji: "😵", Color: "#BF360C"},
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"options": moodOptions,
		"intensityScale": map[string]any{
			"min": moodModel.MinIntensity,
			"max": moodModel.MaxIntensity,
			"labels": map[string]string{
				"1":  "Very Mild",
				"3":  "Mild",
				"5":  "Moderate",
				"7":  "Strong",
				"10": "Very Strong",
			},
		},
	})
}
