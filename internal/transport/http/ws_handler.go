package http

import (
	"log"
	"net/http"

	"aptitude-practice-service/internal/app"
	"github.com/gorilla/websocket"
)

// LeaderboardFeed streams leaderboard snapshots over a websocket.
type LeaderboardFeed struct {
	hub      *app.LeaderboardHub
	upgrader websocket.Upgrader
}

func NewLeaderboardFeed(hub *app.LeaderboardHub) *LeaderboardFeed {
	return &LeaderboardFeed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS pushes a "leaderboard" message for the current snapshot and every change after it.
func (f *LeaderboardFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// make sure a fresh subscriber has something to render
	if _, err := f.hub.Refresh(r.Context()); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "Server Error"}})
		log.Printf("leaderboard refresh: %v", err)
		return
	}

	updates, cancel := f.hub.Subscribe()
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: update}); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// the feed is push-only; reading just detects the client going away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-writerDone
}
