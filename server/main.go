package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db open")
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("db ping")
	}

	store := NewStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if err := seedAdmin(context.Background(), store, cfg, log); err != nil {
		log.WithError(err).Fatal("seed admin")
	}

	svc := NewService(store, log)

	mux := http.NewServeMux()
	api := newAPI(cfg, store, svc, log)
	api.routes(mux)

	srv := &http.Server{Addr: cfg.Addr, Handler: withLogging(log, mux),
		ReadTimeout: 15 * time.Second, ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}

	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			log.WithError(err).Error("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	log.Info("shutting down")
	ctxSh, cancelSh := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSh()
	if err := srv.Shutdown(ctxSh); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

// seedAdmin creates the first admin account on an empty user table so the
// directory has someone who can create everyone else.
func seedAdmin(ctx context.Context, store *Store, cfg Config, log *logrus.Logger) error {
	n, err := store.CountUsers(ctx)
	if err != nil || n > 0 {
		return err
	}
	if cfg.AdminPassword == "" {
		log.Warn("user table empty and no ADMIN_PASSWORD set, skipping admin seed")
		return nil
	}
	u, err := store.CreateUser(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator", RoleAdmin, "")
	if err != nil {
		return err
	}
	log.WithField("email", u.Email).Info("seeded admin user")
	return nil
}
