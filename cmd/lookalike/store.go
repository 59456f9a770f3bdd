package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/engine"
	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/snapshot"
	"github.com/viant/lookalike/sqlstore"
)

func openSQL(ctx context.Context) (*sql.DB, *sqlstore.Store, error) {
	db, err := engine.Open(cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

// loadStore reads embeddings from SQLite when a DSN is configured, otherwise
// from the snapshot file.
func loadStore(ctx context.Context) (*embedding.Store, error) {
	if cfg.Store.DSN != "" {
		db, sqlStore, err := openSQL(ctx)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sqlStore.Load(ctx)
	}
	if cfg.Store.Snapshot == "" {
		return nil, fmt.Errorf("no embedding store configured: set --snapshot or --dsn")
	}
	return snapshot.Load(cfg.Store.Snapshot)
}

// saveStore writes store to every configured destination.
func saveStore(ctx context.Context, store *embedding.Store, crops *face.Crops) error {
	if cfg.Store.Snapshot != "" {
		codec, err := snapshot.ParseCodec(cfg.Store.Codec)
		if err != nil {
			return err
		}
		if err := snapshot.Save(cfg.Store.Snapshot, store, snapshot.WithCodec(codec)); err != nil {
			return err
		}
		logger.Info("snapshot saved", "path", cfg.Store.Snapshot, "codec", codec, "count", store.Len())
	}
	if cfg.Store.DSN != "" {
		db, sqlStore, err := openSQL(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := sqlStore.Save(ctx, store); err != nil {
			return err
		}
		logger.Info("embeddings saved", "dsn", cfg.Store.DSN, "count", store.Len())
	}
	if cfg.Store.CropsDir != "" && crops != nil {
		if err := crops.Save(cfg.Store.CropsDir); err != nil {
			return err
		}
		logger.Info("crops saved", "dir", cfg.Store.CropsDir, "count", crops.Len())
	}
	return nil
}

func loadCrops() (*face.Crops, error) {
	if cfg.Store.CropsDir == "" {
		return nil, nil
	}
	return face.LoadCrops(cfg.Store.CropsDir)
}
