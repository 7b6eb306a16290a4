package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"tennis_bot/configs"
	"tennis_bot/internal/booking"
	"tennis_bot/internal/bot"
	"tennis_bot/internal/logger"
	"tennis_bot/internal/platform/database"
	"tennis_bot/internal/platform/webhook"
	"tennis_bot/internal/platform/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	logger.SetupLogger(cfg.LogLevel)

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Db.User, cfg.Db.Password, cfg.Db.Host, cfg.Db.Port, cfg.Db.Name)

	// Apply migrations; safe to run on every start
	{
		db, err := sql.Open("pgx", dbURL)
		if err != nil {
			logrus.Fatalf("could not connect to the database for migration: %v", err)
		}
		driver, err := pgx.WithInstance(db, &pgx.Config{})
		if err != nil {
			logrus.Fatalf("could not create the pgx driver: %v", err)
		}
		m, err := migrate.NewWithDatabaseInstance(
			"file://migrations",
			"pgx", driver)
		if err != nil {
			logrus.Fatalf("could not create the migrate instance: %v", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logrus.Fatalf("could not run the up migrations: %v", err)
		}
		logrus.Info("Migrations applied successfully")
		db.Close()
	}

	ctx := context.Background()
	conn, err := database.GetConnect(ctx, cfg.Db)
	if err != nil {
		logrus.Fatal(err)
	}
	repo := booking.NewRepo(conn)

	sender := whatsapp.NewClient(cfg.Twilio)
	engine := bot.NewEngine(repo, sender)
	server := webhook.NewServer(cfg.Server.Port, engine)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Webhook server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
	if err := conn.Close(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Failed to close database connection")
	}
	logrus.Info("Server stopped gracefully")
}
