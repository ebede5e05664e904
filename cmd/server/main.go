// notes-api server entrypoint: constructs the store, the identity verifier,
// and the request pipeline, then serves until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/notes-api/internal/api"
	"github.com/kuitang/notes-api/internal/auth"
	"github.com/kuitang/notes-api/internal/config"
	"github.com/kuitang/notes-api/internal/crypto"
	"github.com/kuitang/notes-api/internal/db"
	"github.com/kuitang/notes-api/internal/identity"
	"github.com/kuitang/notes-api/internal/notes"
	"github.com/kuitang/notes-api/internal/obs"
	"github.com/kuitang/notes-api/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	noAuth, dev, addr := config.ParseFlags()
	if err := run(noAuth, dev, addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func run(noAuth, dev bool, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.Init()
	logger := obs.Pkg("main")

	cfg, err := config.LoadConfig(noAuth, dev, addr)
	if err != nil {
		return err
	}
	cfg.PrintStartupSummary()

	// Process-wide singletons: store pool and identity client are created
	// once here and injected; shutdown drains them before exit.
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()

	handler := api.NewHandler(notes.NewService(store), cfg.DevMode)
	authMw := auth.NewMiddleware(verifier, cfg.DevMode)

	notesMux := http.NewServeMux()
	handler.RegisterRoutes(notesMux)

	rateLimited := ratelimit.Middleware(limiter, func(r *http.Request) string {
		return auth.UserID(r.Context())
	})(notesMux)
	protected := authMw.RequireAuth(rateLimited)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Handle("/notes", protected)
	root.Handle("/notes/", protected)

	chain := obs.RequestContextMiddleware(
		obs.AccessLogMiddleware("api",
			handler.RecoverMiddleware(root)))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(cfg *config.Config) (*db.Store, error) {
	if cfg.DatabasePath == ":memory:" {
		return db.OpenInMemory()
	}

	keyHex := cfg.DatabaseKey
	if cfg.DatabaseMasterKey != "" {
		derived, err := crypto.DeriveDatabaseKey(cfg.DatabaseMasterKey)
		if err != nil {
			return nil, fmt.Errorf("derive database key: %w", err)
		}
		keyHex = derived
	}
	return db.Open(cfg.DatabasePath, keyHex)
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	if cfg.NoAuth {
		return identity.NewStaticVerifier(identity.StaticUserID), nil
	}
	return identity.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
}
