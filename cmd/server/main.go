package main

import (
	"context"
	"courier/api"
	"courier/auth"
	"courier/domain"
	"courier/internal"
	"courier/moderation"
	"courier/observability"
	"courier/repositories"
	"courier/runtime"
	"courier/runtime/workers"
	"courier/services"
	"courier/ws"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle, so
// every deferred cleanup executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Moderation
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	words, err := moderation.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("censored word lists: %w", err)
	}
	moderator, err := moderation.NewModerator(words.Words, replacement)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	log.Info("Moderation enabled", "languages", words.Languages, "words", len(words.Words))

	// 4. Pipeline wiring
	presence := runtime.NewPresence()
	monitor := observability.NewMonitor(presence.Size)
	indexQueue := make(chan domain.Message, config.IndexBufferSize)

	userRepository := repositories.NewUserRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchIndex := repositories.NewSearchIndex(writer, log)

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)
	delivery := services.NewDeliveryService(
		log, userRepository, messageRepository, searchIndex,
		presence, moderator, indexQueue, monitor, config.SearchLimit,
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised background workers
	sup := runtime.NewSupervisor(log, config.RestartInterval).Add(
		workers.NewIndexerWorker(log, searchIndex, indexQueue),
		workers.NewTelemetryWorker(log, monitor, config.TelemetryInterval),
	)
	go sup.Run(ctx)

	if config.DebugPort != nil {
		internal.StartDebugServer(db, *config.DebugPort, func() any {
			return monitor.Snapshot()
		})
		log.Info("Debug server listening", "port", *config.DebugPort)
	}

	// 7. HTTP server (REST + channel endpoint)
	channels := ws.NewServer(log, tokens, presence, delivery, config.ConnectionBufferSize, config.WriteTimeout)
	handler := api.NewHandler(log, authService, delivery)
	router := api.NewRouter(handler, tokens, channels)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
