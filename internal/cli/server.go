package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aptitude-practice-service/internal/app"
	"aptitude-practice-service/internal/auth"
	"aptitude-practice-service/internal/config"
	rediscache "aptitude-practice-service/internal/infra/redis"
	"aptitude-practice-service/internal/scheduler"
	transport "aptitude-practice-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the practice API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	log.Printf("storage driver: %s", cfg.Storage.Driver)

	hub := app.NewLeaderboardHub(b.store, cfg.Leaderboard.Size)
	var notifier app.LeaderboardNotifier = hub
	if b.redis != nil {
		relay := rediscache.NewLeaderboardRelay(b.redis, hub)
		notifier = relay
		go func() {
			if err := relay.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("leaderboard relay stopped: %v", err)
			}
		}()
	}

	refreshInterval := config.TTLDuration(cfg.Leaderboard.RefreshInterval, scheduler.DefaultRefreshInterval)
	jobs := scheduler.New(hub, refreshInterval)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	handlers := transport.NewHandlers(
		app.NewPracticeService(b.questions, b.store, notifier),
		app.NewTestSeriesService(b.store, b.store, notifier),
		app.NewUserService(b.store, b.questions, hub),
	)
	router := transport.NewRouter(handlers, transport.NewLeaderboardFeed(hub), auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting practice service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
			cancelRun()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
