package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

const createStoresDDL = `
CREATE TABLE IF NOT EXISTS stores (
	store_id BIGINT NOT NULL,
	chain TEXT NOT NULL,
	doc JSONB NOT NULL,
	PRIMARY KEY (store_id, chain)
)`

const upsertStoreSQL = `
INSERT INTO stores (store_id, chain, doc)
VALUES ($1, $2, $3)
ON CONFLICT (store_id, chain) DO UPDATE SET doc = EXCLUDED.doc`

// UpsertStores refreshes the chain's store directory. The directory is
// small, so a single batch covers every store.
func (s *ProductStore) UpsertStores(ctx context.Context, stores []catalog.Store) error {
	if len(stores) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, store := range stores {
		doc, err := json.Marshal(store)
		if err != nil {
			return fmt.Errorf("marshal store %d: %w", store.StoreID, err)
		}
		batch.Queue(upsertStoreSQL, store.StoreID, store.Chain, doc)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stores {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert stores: %w", err)
		}
	}
	return nil
}

const createRunsDDL = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	run_id TEXT PRIMARY KEY,
	chain TEXT NOT NULL,
	status TEXT NOT NULL,
	stores_count INT NOT NULL,
	summary JSONB NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
)`

const insertRunSQL = `
INSERT INTO crawl_runs (run_id, chain, status, stores_count, summary, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id) DO UPDATE SET
	status = EXCLUDED.status,
	stores_count = EXCLUDED.stores_count,
	summary = EXCLUDED.summary,
	finished_at = EXCLUDED.finished_at`

// RecordRun persists the aggregate summary of a crawl run.
func (s *ProductStore) RecordRun(ctx context.Context, summary catalog.RunSummary) error {
	doc, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = s.pool.Exec(ctx, insertRunSQL,
		summary.RunID, summary.Chain, summary.Status, summary.StoresCount,
		doc, summary.StartedAt, summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("record run %s: %w", summary.RunID, err)
	}
	return nil
}

const getRunSQL = `SELECT summary FROM crawl_runs WHERE run_id = $1`

// GetRun loads a previously recorded run summary.
func (s *ProductStore) GetRun(ctx context.Context, runID string) (catalog.RunSummary, bool, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, getRunSQL, runID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.RunSummary{}, false, nil
	}
	if err != nil {
		return catalog.RunSummary{}, false, fmt.Errorf("get run %s: %w", runID, err)
	}
	var summary catalog.RunSummary
	if err := json.Unmarshal(doc, &summary); err != nil {
		return catalog.RunSummary{}, false, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return summary, true, nil
}
