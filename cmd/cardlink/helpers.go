package main

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/cardlink/internal/config"
	"github.com/at-ishikawa/cardlink/internal/database"
	"github.com/at-ishikawa/cardlink/internal/hoststore"
	"github.com/at-ishikawa/cardlink/internal/hoststore/ankiconnect"
	"github.com/at-ishikawa/cardlink/internal/hoststore/collectionstore"
	"github.com/at-ishikawa/cardlink/internal/linker"
	"github.com/at-ishikawa/cardlink/internal/review"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// hostBackend bundles a host store with the surfaces the backend provides
// itself. The collection backend has no running GUI, so its scheduler,
// reviewer and preview surfaces stay nil and the study session fills them.
type hostBackend struct {
	store     hoststore.Store
	scheduler hoststore.Scheduler
	reviewer  hoststore.Reviewer
	previews  hoststore.PreviewOpener
	cutoffs   review.DayCutoffSource
	close     func() error
}

func newHostBackend(cfg *config.Config) (*hostBackend, error) {
	switch cfg.Host.Backend {
	case "collection":
		db, err := database.Open(cfg.Host.Database)
		if err != nil {
			return nil, fmt.Errorf("database.Open() > %w", err)
		}
		store := collectionstore.New(db, cfg.Review.RolloverHour)
		return &hostBackend{
			store:   store,
			cutoffs: store,
			close:   db.Close,
		}, nil
	case "ankiconnect":
		client := ankiconnect.NewClient(
			cfg.Host.AnkiConnect.URL,
			time.Duration(cfg.Host.AnkiConnect.TimeoutSeconds)*time.Second,
			cfg.Host.AnkiConnect.RetryAttempts,
		)
		return &hostBackend{
			store:     client,
			scheduler: client,
			reviewer:  client,
			previews:  client,
			close:     client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown host backend: %s", cfg.Host.Backend)
	}
}

func newRegistry(cfg *config.Config, store hoststore.Store) *linker.Registry {
	fields := linker.NewFieldStore(store, cfg.Link.FieldName)
	return linker.NewRegistry(store, fields, cfg.Link.TitleMaxLength, cfg.Link.SearchDisplayLength)
}

func newReconciler(cfg *config.Config, backend *hostBackend) *review.Reconciler {
	fields := linker.NewFieldStore(backend.store, cfg.Link.FieldName)
	return review.NewReconciler(backend.store, fields, cfg.Review.RolloverHour, backend.cutoffs, nil)
}
