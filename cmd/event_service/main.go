package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event_service/internal/auth"
	"event_service/internal/config"
	"event_service/internal/events"
	eventHandlers "event_service/internal/http_server/handlers/events"
	"event_service/internal/http_server/handlers/logout"
	"event_service/internal/http_server/handlers/me"
	"event_service/internal/http_server/handlers/recruiter"
	requestCode "event_service/internal/http_server/handlers/request_code"
	"event_service/internal/http_server/handlers/users"
	verifyCode "event_service/internal/http_server/handlers/verify_code"
	sl "event_service/internal/lib/logger"
	"event_service/internal/middleware/authn"
	rateLimit "event_service/internal/middleware/ratelimit"
	"event_service/internal/rabbitmq"
	mongoRepo "event_service/internal/storage/mongo"
	redisRepo "event_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting event service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := mongoRepo.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect mongo", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close(context.Background())

	guard, err := redisRepo.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer guard.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	authService := auth.New(
		log,
		storage,
		storage,
		guard,
		msgBroker,
		cfg.OTP.TTL,
		cfg.OTP.Length,
		cfg.Sessions.TokenTTL,
	)

	eventService := events.New(log, storage, storage)

	router := setupRouter(log, authService, eventService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	eventService *events.Events,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.With(rateLimit.RequestCode()).Post("/request-code",
			requestCode.New(log, validate, authService),
		)
		r.With(rateLimit.VerifyCode()).Post("/verify-code",
			verifyCode.New(log, validate, authService),
		)
		r.With(rateLimit.Recruiter()).Post("/recruiter",
			recruiter.New(log, validate, authService),
		)
		r.With(authn.New(log, authService), rateLimit.Logout()).Post("/logout",
			logout.New(log, authService),
		)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.New(log, authService))

		r.Get("/me", me.New(log))

		r.With(authn.RequireRecruiter()).Get("/users",
			users.New(log, authService),
		)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandlers.NewCreate(log, validate, eventService))
			r.Get("/", eventHandlers.NewList(log, eventService))
			r.Get("/{id}", eventHandlers.NewGet(log, eventService))
			r.Patch("/{id}", eventHandlers.NewUpdate(log, eventService))
			r.Delete("/{id}", eventHandlers.NewDelete(log, eventService))
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
