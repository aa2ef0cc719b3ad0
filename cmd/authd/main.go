package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"eduauth/internal/config"
	"eduauth/internal/jwtcodec"
	"eduauth/internal/observability/logging"
	"eduauth/internal/observability/metrics"
	impl "eduauth/internal/service/impl"
	"eduauth/internal/store"
	httpx "eduauth/internal/transport/http"
	"eduauth/pkg/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := logging.FromEnv("eduauth")
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg := config.Load()
	metrics.MustRegister("eduauth")

	gdb, err := db.Open(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("db open", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close(gdb) }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, gdb); err != nil {
		logger.Error("db migrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	codec, err := jwtcodec.New([]byte(cfg.SigningKey), cfg.JWTAlgorithms)
	if err != nil {
		logger.Error("jwt codec", "error", err)
		os.Exit(1)
	}

	passwords := impl.NewPasswordServiceBcrypt(cfg.Pepper)
	sessions := impl.NewSessionService(impl.SessionConfig{
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, codec, st)
	auth := impl.NewAuthService(st, passwords, sessions)

	gate := httpx.NewGate(codec, st)
	handler := httpx.NewRouter(auth, sessions, gate)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("listening", "addr", srv.Addr, "issuer", cfg.Issuer)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
