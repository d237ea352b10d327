// Command server runs the identity service. main only wires dependencies
// and owns the process lifecycle; business logic lives under internal/.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	authhandler "rollcall/internal/auth/handler"
	authmetrics "rollcall/internal/auth/metrics"
	authservice "rollcall/internal/auth/service"
	httpapi "rollcall/internal/http"
	identityhandler "rollcall/internal/identity/handler"
	identitymetrics "rollcall/internal/identity/metrics"
	identityservice "rollcall/internal/identity/service"
	"rollcall/internal/identity/store"
	"rollcall/internal/institution"
	"rollcall/internal/notification"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/security/cipher"
	"rollcall/internal/security/hashing"
	"rollcall/internal/security/passgen"
	jwttoken "rollcall/internal/token"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	templateCipher, err := cipher.New(cfg.EncryptionKey)
	if err != nil {
		return err
	}
	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenTTL)

	var (
		identityStore identityservice.Store
		authStore     authservice.Store
		institutions  institution.Lookup
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return err
		}
		identityStore = pg
		authStore = pg
		institutions = institution.NewPostgresLookup(db)
		log.Info("using postgres store")
	} else {
		mem := store.NewInMemory()
		identityStore = mem
		authStore = mem
		institutions = institution.NewInMemory()
		log.Warn("no database configured, using in-memory store")
	}

	notifier := notification.NewLogSender(log)

	identities := identityservice.New(
		identityStore,
		hashing.New(),
		templateCipher,
		passgen.New(),
		institutions,
		notifier,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identitymetrics.New()),
	)
	auth := authservice.New(
		authStore,
		hashing.New(),
		tokens,
		identities,
		authservice.WithLogger(log),
		authservice.WithMetrics(authmetrics.New()),
	)

	router := httpapi.NewRouter(
		authhandler.New(auth, log),
		identityhandler.New(identities, log),
		tokens,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
