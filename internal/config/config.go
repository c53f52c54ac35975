package config

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/course_market/internal/repo"
	pkgconfig "github.com/Skotchmaster/course_market/pkg/config"
	pkgdb "github.com/Skotchmaster/course_market/pkg/db"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = pkgdb.DriverPostgres
	DriverSQLite   = pkgdb.DriverSQLite
)

// Load reads .env (if any) and the environment, and exits on missing required keys.
func Load() pkgconfig.Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := pkgconfig.Load()

	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	pkgconfig.MustOneOf(cfg.StoreDriver, "STORE_DRIVER", DriverMongo, DriverPostgres, DriverSQLite)
	if cfg.StoreDriver == DriverMongo {
		pkgconfig.MustNonEmpty(cfg.MongoURI, "DB_CONNECTION_STRING")
	} else {
		pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	}

	return cfg
}

// OpenStore connects the configured store and prepares its schema or indexes.
func OpenStore(ctx context.Context, cfg pkgconfig.Config) (repo.Store, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		db, err := pkgdb.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		r := repo.NewMongoRepo(db)
		if err := r.EnsureIndexes(ctx); err != nil {
			_ = r.Close(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return r, nil

	case DriverPostgres, DriverSQLite:
		db, err := pkgdb.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		r := repo.NewGormRepo(db)
		if err := r.Migrate(ctx); err != nil {
			_ = r.Close(context.Background())
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
