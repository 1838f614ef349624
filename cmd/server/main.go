// @title       Go Chat Relay API
// @version     1.0
// @description Realtime chat fan-out relay: room resolution, message history, presence and the WebSocket endpoint.
// @BasePath    /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-chat-relay/internal/auth"
	"github.com/tbourn/go-chat-relay/internal/chathub"
	"github.com/tbourn/go-chat-relay/internal/config"
	httpapi "github.com/tbourn/go-chat-relay/internal/http"
	"github.com/tbourn/go-chat-relay/internal/observability"
	"github.com/tbourn/go-chat-relay/internal/presence"
	"github.com/tbourn/go-chat-relay/internal/repo"
	"github.com/tbourn/go-chat-relay/internal/services"
	"github.com/tbourn/go-chat-relay/internal/sysutil"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	if cfg.InsecureJWTSecret() {
		log.Warn().Msg("JWT_SECRET is unset or uses the built-in default; do not run like this in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database setup failed")
	}

	tracker := newTracker(ctx, cfg.RedisURL)

	rooms := services.NewRoomService(db, repo.RoomStore{})
	msgs := services.NewMessageService(db, repo.MessageStore{}, repo.RoomStore{})
	msgs.MaxRunes = cfg.MessageMaxRunes

	hub := chathub.NewManager(rooms, msgs, tracker, logger)

	validator, err := auth.NewValidator(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("token validator")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Rooms: rooms, Messages: msgs, Hub: hub, Auth: validator}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Msg("relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are invisible to Server.Shutdown, so the
	// hub closes them itself.
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := hub.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("chathub shutdown")
	}
	if err := tracker.Close(); err != nil {
		log.Error().Err(err).Msg("presence close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == repo.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repo.EnableTracing(db); err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newTracker connects presence publishing when REDIS_URL is set. A Redis
// outage at boot degrades to local-only presence instead of failing startup.
func newTracker(ctx context.Context, redisURL string) presence.Tracker {
	if redisURL == "" {
		return presence.Noop{}
	}
	t, err := presence.NewRedisTracker(ctx, redisURL)
	if err != nil {
		log.Error().Err(err).Msg("redis presence unavailable; continuing without it")
		return presence.Noop{}
	}
	return t
}
