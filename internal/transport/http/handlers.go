package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/auth"
	"aptitude-practice-service/internal/domain"
	"github.com/gorilla/mux"
)

// Handlers adapts the practice, test series and user use cases to HTTP.
type Handlers struct {
	practice *app.PracticeService
	series   *app.TestSeriesService
	users    *app.UserService
}

func NewHandlers(practice *app.PracticeService, series *app.TestSeriesService, users *app.UserService) *Handlers {
	return &Handlers{practice: practice, series: series, users: users}
}

type submitRequest struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

type unlockRequest struct {
	TestSeriesID string `json:"testSeriesId"`
}

func (h *Handlers) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.practice.ListProblems(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, problems)
}

func (h *Handlers) GetProblem(w http.ResponseWriter, r *http.Request) {
	view, err := h.practice.Locate(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.QuestionID == "" || req.AnswerID == "" {
		writeMessage(w, http.StatusBadRequest, "questionId and answerId are required")
		return
	}
	result, err := h.practice.SubmitAnswer(r.Context(), userID, req.QuestionID, req.AnswerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListTestSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.series.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handlers) UnlockTestSeries(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	var req unlockRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TestSeriesID == "" {
		writeMessage(w, http.StatusBadRequest, "testSeriesId is required")
		return
	}
	result, err := h.series.Unlock(r.Context(), userID, req.TestSeriesID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.users.Leaderboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries := lb.Entries
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	stats, err := h.users.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	return nil
}
