package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/catalog"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/legacy"
	"github.com/iliyamo/movie-ticket-booking/internal/memstore"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// appStore is what both store backends provide.
type appStore interface {
	booking.Store
	catalog.Store
	legacy.Target
	Ping(ctx context.Context) error
}

// openStore returns the backend selected by STORE.  The MySQL schema is
// created when missing.  The returned func releases the backend.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (appStore, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using the in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	case config.StoreMySQL:
		db, err := database.Open(cfg.Database())
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.WithFields(logrus.Fields{"host": cfg.DBHost, "db": cfg.DBName}).Info("connected to mysql")
		return repository.New(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
