package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"aptitude-practice-service/internal/auth"
	"aptitude-practice-service/internal/domain"
)

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}

// writeError maps domain errors to status codes; anything unrecognized is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, status, "Server Error")
		return
	}
	writeMessage(w, status, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyUnlocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds), domain.IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "Problem not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrTestSeriesNotFound):
		return "Test Series not found"
	case errors.Is(err, domain.ErrAlreadyUnlocked):
		return "You have already unlocked this test."
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Not enough coins."
	case errors.Is(err, domain.ErrOptionNotFound):
		return "Invalid option selected"
	case errors.Is(err, domain.ErrInvalidOptionData), errors.Is(err, domain.ErrUnknownDifficulty):
		return "Invalid option data in database"
	case errors.Is(err, auth.ErrMissingToken):
		return "Not authorized, no token"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Not authorized, token failed"
	default:
		return err.Error()
	}
}
