package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go-roastery-api/internal/config"
	"go-roastery-api/internal/logger"
	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resets a user's password and signs out their current session.
//
//	go run ./cmd/reset-password -email admin@example.com -password newsecret
func main() {
	email := flag.String("email", "", "account email (defaults to the configured admin)")
	password := flag.String("password", "", "new password (defaults to the configured admin password)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	defer func() { _ = log.Sync() }()

	if *email == "" {
		*email = cfg.Admin.Email
	}
	if *password == "" {
		*password = cfg.Admin.Password
	}
	if len(*password) < 8 {
		log.Fatal("Password must be at least 8 characters")
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal("User not found", zap.String("email", *email), zap.Error(err))
	}

	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.Fatal("Failed to update password", zap.Error(err))
	}
	if err := users.UpdateTokenVersion(ctx, user.ID, uuid.New().String()); err != nil {
		log.Warn("Password updated but session was not revoked", zap.Error(err))
	}

	log.Info("Password reset", zap.String("email", user.Email))
}
