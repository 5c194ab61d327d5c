package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/contact"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-addressbook-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-addressbook-go/pkg/database"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
}

func serve(parent context.Context, cfg *config.Config) error {
	lg, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting addressbook")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db
	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer sqlDB.Close()

	if !skipMigrate {
		if err := database.Migrate(ctx, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// wrap with sqlx for the repos
	db := sqlx.NewDb(sqlDB, "postgres")

	contacts, err := contact.OpenStore(ctx, cfg.Contacts)
	if err != nil {
		return fmt.Errorf("contact store: %w", err)
	}
	defer contacts.Close()

	hasher, err := user.NewHasher(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	issuer, err := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}
	pages, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	users := user.NewUserService(userrepo.NewUserRepo(db), hasher)
	handler := router.RegisterRoutes(router.Deps{
		Users: user.NewHandler(user.HandlerDeps{
			Service:        users,
			Issuer:         issuer,
			Cookies:        cfg.Cookie,
			Mirror:         identity.New(cfg.Identity, nil),
			MirrorRequired: cfg.Identity.Required,
			Pages:          pages,
			Logger:         sugar,
		}),
		Contacts: contact.NewHandler(contact.NewContactService(contacts), users, pages, sugar),
		Guard:    session.NewGuard(issuer, cfg.Cookie, sugar),
		DB:       db,
		Logger:   sugar,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", srv.Addr, "contact_store", cfg.Contacts.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
	return nil
}
