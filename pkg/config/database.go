package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const connectTimeout = 10 * time.Second

// DB holds the open connections. SQL is nil for memory storage and Mongo is nil when MONGO_URI is unset.
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client
}

// InitDB opens the relational store selected by cfg.Storage and the optional Mongo event log
func InitDB(ctx context.Context, cfg *Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db := &DB{}
	var err error
	switch cfg.Storage {
	case StoragePostgres:
		if db.SQL, err = openGorm(ctx, postgres.Open(cfg.PostgresConnStr)); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Println("Successfully connected to PostgreSQL!")
	case StorageSQLite:
		if db.SQL, err = openGorm(ctx, sqlite.Open(sqliteDSN(cfg.SQLitePath))); err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Printf("Using SQLite database %s", cfg.SQLitePath)
	}

	if cfg.MongoURI != "" {
		if db.Mongo, err = openMongo(ctx, cfg.MongoURI); err != nil {
			_ = db.Close(context.Background())
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		log.Println("Successfully connected to MongoDB!")
	}
	return db, nil
}

// openGorm opens the dialector with error translation so repositories see gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated
func openGorm(ctx context.Context, dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per connection by default
func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func openMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("nano-blog"))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Ping reports the first unreachable backend
func (db *DB) Ping(ctx context.Context) error {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("sql: %w", err)
		}
	}
	if db.Mongo != nil {
		if err := db.Mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	return nil
}

// Close releases every open connection and joins their errors
func (db *DB) Close(ctx context.Context) error {
	var errs []error
	if db.SQL != nil {
		if sqlDB, err := db.SQL.DB(); err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sql: %w", err))
		}
	}
	if db.Mongo != nil {
		if err := db.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}
