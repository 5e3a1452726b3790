// Package main seeds the database with sample marketplace data: a
// handful of users (all with the same known password), items across the
// full condition range, random favorites, and random feedback.
//
// Run it against a fresh or existing database; it wipes the tables
// first, children before parents so the foreign keys stay happy.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/curbside-market/internal/auth"
	"github.com/sakif/curbside-market/internal/config"
	"github.com/sakif/curbside-market/internal/model"
	sqliteRepo "github.com/sakif/curbside-market/internal/repository/sqlite"
)

// seedPassword is the login password for every seeded account.
const seedPassword = "password123"

const (
	numUsers     = 10
	numItems     = 50
	numFavorites = 100
	numFeedback  = 200
)

var conditions = []string{
	model.ConditionNew,
	model.ConditionLikeNew,
	model.ConditionGood,
	model.ConditionFair,
	model.ConditionNeedsRepair,
}

var itemNames = []string{
	"Couch", "Bookshelf", "Lamp", "Desk", "Dresser", "Mirror",
	"Toaster", "Bicycle", "Rug", "Armchair", "Nightstand", "Planter",
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(context.Background(), db, logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("database seeded successfully", slog.String("database", cfg.DBPath))
}

func seed(ctx context.Context, db *sqliteRepo.DB, logger *slog.Logger) error {
	logger.Info("starting seed")

	// Wipe in dependency order
	for _, table := range []string{"feedback", "favorites", "items", "users"} {
		if _, err := db.Conn().ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	// Hash once; bcrypt at default cost is slow on purpose, and all the
	// seed accounts share the same password anyway.
	hash, err := auth.NewPasswordService().Hash(seedPassword)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	users := make([]*model.User, 0, numUsers)
	for i := 1; i <= numUsers; i++ {
		user := &model.User{
			Email:        fmt.Sprintf("user%d@example.com", i),
			Username:     fmt.Sprintf("neighbor%d", i),
			PasswordHash: hash,
		}
		if err := db.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("creating user %s: %w", user.Email, err)
		}
		users = append(users, user)
	}
	logger.Info("seeded users", slog.Int("count", len(users)))

	items := make([]*model.Item, 0, numItems)
	for i := 0; i < numItems; i++ {
		owner := users[rand.Intn(len(users))]
		name := itemNames[rand.Intn(len(itemNames))]
		item := &model.Item{
			UserID:            owner.ID,
			Name:              name,
			Description:       fmt.Sprintf("A %s in %s condition, free to a good home.", name, conditions[i%len(conditions)]),
			Location:          fmt.Sprintf("%d Maple Street", 100+rand.Intn(900)),
			Condition:         conditions[i%len(conditions)],
			TimeToBeSetOnCurb: time.Now().Add(time.Duration(rand.Intn(14*24)) * time.Hour),
			Image:             fmt.Sprintf("seed_%s_%d.jpg", name, i),
		}
		if err := db.Items.Create(ctx, item); err != nil {
			return fmt.Errorf("creating item %q: %w", item.Name, err)
		}
		items = append(items, item)
	}
	logger.Info("seeded items", slog.Int("count", len(items)))

	// Random pairs collide, and the unique constraint rejects the
	// duplicates; count what actually landed.
	favorites := 0
	for i := 0; i < numFavorites; i++ {
		user := users[rand.Intn(len(users))]
		item := items[rand.Intn(len(items))]
		err := db.Favorites.Add(ctx, user.ID, item.ID)
		if err == nil {
			favorites++
		}
	}
	logger.Info("seeded favorites", slog.Int("count", favorites))

	feedbackTypes := []string{model.FeedbackLike, model.FeedbackDislike}
	for i := 0; i < numFeedback; i++ {
		fb := &model.Feedback{
			UserID: users[rand.Intn(len(users))].ID,
			ItemID: items[rand.Intn(len(items))].ID,
			Type:   feedbackTypes[rand.Intn(len(feedbackTypes))],
		}
		if err := db.Feedback.Create(ctx, fb); err != nil {
			return fmt.Errorf("creating feedback: %w", err)
		}
	}
	logger.Info("seeded feedback", slog.Int("count", numFeedback))

	return nil
}
