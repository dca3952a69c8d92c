package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// RESTHandler exposes the non-realtime session surface: creating sessions
// and reading leaderboards, stats and status.
type RESTHandler struct {
	game *app.Game
}

func NewRESTHandler(game *app.Game) *RESTHandler {
	return &RESTHandler{game: game}
}

// Register mounts the handler's routes on the mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("POST /sessions/{id}/end", h.endSession)
	mux.HandleFunc("GET /sessions/{id}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /sessions/{id}/stats", h.stats)
	mux.HandleFunc("GET /sessions/{id}/status", h.status)
}

type createSessionRequest struct {
	HostID string `json:"hostId"`
	QuizID string `json:"quizId"`
}

func (h *RESTHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostID == "" || req.QuizID == "" {
		writeJSONError(w, http.StatusBadRequest, "hostId and quizId are required")
		return
	}
	s, err := h.game.Registry.CreateSession(r.Context(), req.HostID, req.QuizID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *RESTHandler) endSession(w http.ResponseWriter, r *http.Request) {
	ended, err := h.game.Registry.EndSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": ended})
}

func (h *RESTHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.game.Boards.ComputeLeaderboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *RESTHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.game.Boards.ComputeSessionStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *RESTHandler) status(w http.ResponseWriter, r *http.Request) {
	active, err := h.game.Registry.GetSessionStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isActive": active})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrCodeNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrRoundOpen),
		errors.Is(err, domain.ErrRoundClosed),
		errors.Is(err, domain.ErrStaleRoundNumber),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrNotSessionMember):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidSelection):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
