package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go-roastery-api/internal/cart"
	"go-roastery-api/internal/config"
	"go-roastery-api/internal/logger"
	"go-roastery-api/internal/repository"
	"go-roastery-api/internal/service"
	"go-roastery-api/pkg/database"

	"go.uber.org/zap"
)

// Attaches a cart saved on disk to a user account, the same way a shopper's
// browser does on sign-in: a non-empty server cart wins, otherwise the file
// is stored on the server. Extra lines can be added afterwards.
//
//	go run ./cmd/cartsync -email shopper@example.com -file cart.json -add house-blend:2 -subscribe
func main() {
	email := flag.String("email", "", "account email")
	file := flag.String("file", "cart.json", "local cart file")
	add := flag.String("add", "", "comma separated slug:qty lines to add after syncing")
	subscribe := flag.Bool("subscribe", false, "turn the subscription on after syncing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	defer func() { _ = log.Sync() }()

	if *email == "" {
		log.Fatal("An account email is required")
	}
	mutations, err := parseLines(*add)
	if err != nil {
		log.Fatal("Invalid -add value", zap.Error(err))
	}
	if *subscribe {
		mutations = append(mutations, cart.SetSubscription{On: true})
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}

	ctx := context.Background()
	products := repository.NewProductRepo(db)
	user, err := repository.NewUserRepo(db).FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal("User not found", zap.String("email", *email), zap.Error(err))
	}

	reducer, err := service.CatalogReducer(ctx, products, cfg.Catalog.MachineSlug)
	if err != nil {
		log.Fatal("Failed to load catalog", zap.Error(err))
	}
	remote := service.CartRemote{Service: service.NewCartService(repository.NewCartRepo(db), products, cfg.Catalog.MachineSlug, log)}
	m := cart.NewManager(ctx, reducer, cart.FileStore{Path: *file}, remote, log)

	if err := m.OnIdentityChange(ctx, user.ID.String()); err != nil {
		log.Fatal("Cart sync failed", zap.Error(err))
	}
	for _, mut := range mutations {
		if _, err := m.Dispatch(ctx, mut); err != nil {
			log.Fatal("Cart update failed", zap.Error(err))
		}
	}
	m.Wait()

	state := m.State()
	log.Info("Cart synced",
		zap.String("email", user.Email),
		zap.Int("items", state.ItemCount()),
		zap.Bool("subscription", state.IsSubscription),
		zap.Int64("total", state.Total()))
}

func parseLines(raw string) ([]cart.Mutation, error) {
	var out []cart.Mutation
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		slug, qty, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%q: expected slug:qty", part)
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		out = append(out, cart.AddItem{Slug: slug, Quantity: n})
	}
	return out, nil
}
