// Package main is the Campstack sample data loader. It imports bootcamps,
// courses, reviews and users from JSON files, or wipes them all with
// -destroy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/campstack/campstack/internal/config"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
	"github.com/campstack/campstack/internal/repository/postgres"
	"github.com/campstack/campstack/internal/repository/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dataDir := flag.String("data", "./_data", "directory holding the seed JSON files")
	destroy := flag.Bool("destroy", false, "delete all data instead of importing")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.MustLoad(*configPath)
	ctx := context.Background()

	repos, closeDB, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer closeDB()

	if *destroy {
		if err := destroyAll(ctx, repos); err != nil {
			logger.Fatal().Err(err).Msg("destroy failed")
		}
		logger.Info().Msg("data destroyed")
		return
	}

	if err := importAll(ctx, repos, *dataDir, logger); err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
	logger.Info().Msg("data imported")
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, func() error, error) {
	switch cfg.Driver {
	case repository.DriverSQLite:
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewRepositories(db), db.Close, nil

	case repository.DriverPostgres:
		db, err := postgres.NewDB(ctx, postgres.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Database: cfg.Database,
			SSLMode:  cfg.SSLMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewRepositories(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// seedUser carries a plaintext password that gets hashed on import.
type seedUser struct {
	domain.User
	Password string `json:"password"`
}

func importAll(ctx context.Context, repos *repository.Repositories, dataDir string, logger zerolog.Logger) error {
	var users []seedUser
	if err := loadJSON(dataDir, "users.json", &users); err != nil {
		return err
	}
	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(users[i].Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := users[i].User
		u.PasswordHash = string(hash)
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		if err := repos.Users.Create(ctx, &u); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}
	logger.Info().Int("count", len(users)).Msg("users imported")

	var bootcamps []domain.Bootcamp
	if err := loadJSON(dataDir, "bootcamps.json", &bootcamps); err != nil {
		return err
	}
	for i := range bootcamps {
		b := bootcamps[i]
		if b.Photo == "" {
			b.Photo = domain.DefaultPhoto
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		if err := repos.Bootcamps.Create(ctx, &b); err != nil {
			return fmt.Errorf("bootcamp %s: %w", b.Name, err)
		}
	}
	logger.Info().Int("count", len(bootcamps)).Msg("bootcamps imported")

	var courses []domain.Course
	if err := loadJSON(dataDir, "courses.json", &courses); err != nil {
		return err
	}
	for i := range courses {
		c := courses[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		if err := repos.Courses.Create(ctx, &c); err != nil {
			return fmt.Errorf("course %s: %w", c.Title, err)
		}
	}
	logger.Info().Int("count", len(courses)).Msg("courses imported")

	var reviews []domain.Review
	if err := loadJSON(dataDir, "reviews.json", &reviews); err != nil {
		return err
	}
	for i := range reviews {
		rev := reviews[i]
		if rev.CreatedAt.IsZero() {
			rev.CreatedAt = time.Now().UTC()
		}
		if err := repos.Reviews.Create(ctx, &rev); err != nil {
			return fmt.Errorf("review %s: %w", rev.Title, err)
		}
	}
	logger.Info().Int("count", len(reviews)).Msg("reviews imported")

	return nil
}

// destroyAll removes every record. Deleting a bootcamp cascades to its
// courses and reviews, so only bootcamps and users need walking.
func destroyAll(ctx context.Context, repos *repository.Repositories) error {
	bootcamps, err := repos.Bootcamps.List(ctx, repository.ShapedQuery{Page: 1, Limit: 10000})
	if err != nil {
		return err
	}
	for _, b := range bootcamps.Items {
		if err := repos.Bootcamps.Delete(ctx, b.ID); err != nil {
			return err
		}
	}

	users, err := repos.Users.List(ctx, repository.ShapedQuery{Page: 1, Limit: 10000})
	if err != nil {
		return err
	}
	for _, u := range users.Items {
		if err := repos.Users.Delete(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func loadJSON(dir, name string, dst any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
