package http

import (
	"log"
	"net/http"
	"time"

	"aptitude-practice-service/internal/auth"
	"github.com/gorilla/mux"
)

// NewRouter wires the REST API, the health probe and the leaderboard feed.
func NewRouter(h *Handlers, feed *LeaderboardFeed, verifier *auth.Verifier) http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/leaderboard", feed.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/practice/problems", h.ListProblems).Methods(http.MethodGet)
	api.HandleFunc("/practice/problems/{slug}", h.GetProblem).Methods(http.MethodGet)
	// short forms kept for existing API consumers
	api.HandleFunc("/practice", h.ListProblems).Methods(http.MethodGet)
	api.HandleFunc("/practice/problem/{slug}", h.GetProblem).Methods(http.MethodGet)
	api.HandleFunc("/users/leaderboard", h.Leaderboard).Methods(http.MethodGet)

	requireAuth := verifier.Middleware(func(w http.ResponseWriter, err error) {
		writeMessage(w, statusFor(err), messageFor(err))
	})

	protected := api.NewRoute().Subrouter()
	protected.Use(requireAuth)
	protected.HandleFunc("/practice/submit", h.SubmitAnswer).Methods(http.MethodPost)
	protected.HandleFunc("/practice/test-series", h.ListTestSeries).Methods(http.MethodGet)
	protected.HandleFunc("/practice/unlock-test", h.UnlockTestSeries).Methods(http.MethodPost)
	protected.HandleFunc("/practice/test-series/unlock", h.UnlockTestSeries).Methods(http.MethodPost)
	protected.HandleFunc("/users/stats", h.Stats).Methods(http.MethodGet)
	protected.HandleFunc("/users/profile", h.Profile).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/leaderboard" {
			// hijacked connections cannot be wrapped
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %s %d %s", r.Method, r.URL.Path, r.RemoteAddr, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
