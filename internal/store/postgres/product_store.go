// Package postgres provides Postgres-backed persistence for the crawl
// pipeline. Canonical products are stored document-style: one table per
// category collection, keyed by (sku, store_id), with the full record in
// a JSONB column so the schema can follow the vendors without migrations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/metrics"
	"github.com/pricewatch-vn/grocery-crawler/internal/taxonomy"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PoolConfig controls the Postgres connection pool.
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// ProductStore persists canonical products, the store directory, and run
// summaries.
type ProductStore struct {
	pool   pgxPool
	logger *zap.Logger
}

// NewProductStore connects a pool using the provided config.
func NewProductStore(ctx context.Context, cfg PoolConfig, logger *zap.Logger) (*ProductStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, logger), nil
}

// NewProductStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewProductStoreWithPool(pool pgxPool, logger *zap.Logger) (*ProductStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newStore(pool, logger), nil
}

func newStore(pool pgxPool, logger *zap.Logger) *ProductStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductStore{pool: pool, logger: logger}
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const createCollectionDDL = `
CREATE TABLE IF NOT EXISTS %s (
	sku BIGINT NOT NULL,
	store_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	fingerprint TEXT NOT NULL DEFAULT '',
	crawled_at TIMESTAMPTZ NOT NULL,
	doc JSONB NOT NULL,
	PRIMARY KEY (sku, store_id)
)`

const createCollectionNameIndexDDL = `CREATE INDEX IF NOT EXISTS %s_name_idx ON %s (name)`

// EnsureSchema creates the collection tables plus the store directory and
// run tables. Called once at startup; every statement is idempotent.
func (s *ProductStore) EnsureSchema(ctx context.Context, collections []string) error {
	for _, coll := range collections {
		table, err := collectionTable(coll)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(createCollectionDDL, table)); err != nil {
			return fmt.Errorf("create collection %s: %w", table, err)
		}
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(createCollectionNameIndexDDL, table, table)); err != nil {
			return fmt.Errorf("index collection %s: %w", table, err)
		}
	}
	if _, err := s.pool.Exec(ctx, createStoresDDL); err != nil {
		return fmt.Errorf("create stores table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createRunsDDL); err != nil {
		return fmt.Errorf("create crawl_runs table: %w", err)
	}
	return nil
}

const upsertProductSQL = `
INSERT INTO %s (sku, store_id, name, fingerprint, crawled_at, doc)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (sku, store_id) DO UPDATE SET
	name = EXCLUDED.name,
	fingerprint = EXCLUDED.fingerprint,
	crawled_at = EXCLUDED.crawled_at,
	doc = EXCLUDED.doc
RETURNING (xmax = 0) AS inserted`

// UpsertProducts groups products by destination collection and issues one
// bulk upsert per group. Groups are independent: one group's failure does
// not block the others, and a failing row inside a group falls back to
// row-at-a-time writes so its siblings still apply.
func (s *ProductStore) UpsertProducts(ctx context.Context, products []catalog.CanonicalProduct) (map[string]catalog.BulkResult, error) {
	groups := make(map[string][]catalog.CanonicalProduct)
	for _, p := range products {
		groups[taxonomy.CollectionName(p.Category)] = append(groups[taxonomy.CollectionName(p.Category)], p)
	}

	results := make(map[string]catalog.BulkResult, len(groups))
	var firstErr error
	for coll, group := range groups {
		result, err := s.upsertGroup(ctx, coll, group)
		results[coll] = result
		metrics.AddUpserts(coll, result.Upserted, result.Modified, result.Failed)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("collection %s: %w", coll, err)
		}
	}
	return results, firstErr
}

func (s *ProductStore) upsertGroup(ctx context.Context, coll string, group []catalog.CanonicalProduct) (catalog.BulkResult, error) {
	table, err := collectionTable(coll)
	if err != nil {
		return catalog.BulkResult{Failed: len(group)}, err
	}
	query := fmt.Sprintf(upsertProductSQL, table)

	rows := make([][]any, 0, len(group))
	for _, p := range group {
		doc, err := json.Marshal(p)
		if err != nil {
			return catalog.BulkResult{Failed: len(group)}, fmt.Errorf("marshal product %d: %w", p.SKU, err)
		}
		rows = append(rows, []any{p.SKU, p.StoreID, p.Name, p.Fingerprint, p.CrawledAt, doc})
	}

	result, err := s.sendUpsertBatch(ctx, query, rows)
	if err == nil {
		return result, nil
	}
	s.logger.Warn("bulk upsert failed, retrying rows individually",
		zap.String("collection", coll), zap.Error(err))
	return s.upsertRows(ctx, query, rows)
}

func (s *ProductStore) sendUpsertBatch(ctx context.Context, query string, rows [][]any) (catalog.BulkResult, error) {
	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(query, args...)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var result catalog.BulkResult
	for range rows {
		var inserted bool
		if err := br.QueryRow().Scan(&inserted); err != nil {
			return result, fmt.Errorf("batch upsert: %w", err)
		}
		if inserted {
			result.Upserted++
		} else {
			result.Modified++
		}
	}
	return result, nil
}

func (s *ProductStore) upsertRows(ctx context.Context, query string, rows [][]any) (catalog.BulkResult, error) {
	var result catalog.BulkResult
	var firstErr error
	for _, args := range rows {
		var inserted bool
		if err := s.pool.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
			result.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("row upsert: %w", err)
			}
			continue
		}
		if inserted {
			result.Upserted++
		} else {
			result.Modified++
		}
	}
	return result, firstErr
}

const patchPriceSQL = `
UPDATE %s SET
	doc = doc || $3::jsonb,
	fingerprint = $4,
	crawled_at = $5
WHERE sku = $1 AND store_id = $2`

// PatchPrices applies price-only updates to existing documents, returning
// how many rows changed.
func (s *ProductStore) PatchPrices(ctx context.Context, patches []catalog.PricePatch) (int, error) {
	patched := 0
	var firstErr error
	for _, patch := range patches {
		table, err := collectionTable(patch.Collection)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delta, err := json.Marshal(map[string]any{
			"price_info":  patch.Price,
			"fingerprint": patch.Fingerprint,
			"crawled_at":  patch.CrawledAt,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("marshal patch %d: %w", patch.SKU, err)
			}
			continue
		}
		tag, err := s.pool.Exec(ctx, fmt.Sprintf(patchPriceSQL, table),
			patch.SKU, patch.StoreID, delta, patch.Fingerprint, patch.CrawledAt)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("patch %s sku %d: %w", patch.Collection, patch.SKU, err)
			}
			continue
		}
		patched += int(tag.RowsAffected())
	}
	return patched, firstErr
}

const findTranslationSQL = `
SELECT doc->>'name_en', doc->'token_ngrams' FROM %s WHERE name = $1 LIMIT 1`

// FindTranslation looks up any persisted document with an identical name
// (any store) and returns its translation fields.
func (s *ProductStore) FindTranslation(ctx context.Context, collection, name string) (catalog.Translation, bool, error) {
	table, err := collectionTable(collection)
	if err != nil {
		return catalog.Translation{}, false, err
	}
	var nameEN string
	var ngramsJSON []byte
	err = s.pool.QueryRow(ctx, fmt.Sprintf(findTranslationSQL, table), name).Scan(&nameEN, &ngramsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Translation{}, false, nil
	}
	if err != nil {
		return catalog.Translation{}, false, fmt.Errorf("find translation: %w", err)
	}
	var ngrams []string
	if len(ngramsJSON) > 0 {
		if err := json.Unmarshal(ngramsJSON, &ngrams); err != nil {
			return catalog.Translation{}, false, fmt.Errorf("decode token ngrams: %w", err)
		}
	}
	return catalog.Translation{NameEN: nameEN, TokenNgrams: ngrams}, true, nil
}

const findFingerprintSQL = `
SELECT fingerprint FROM %s WHERE sku = $1 AND store_id = $2`

// FindFingerprint returns the stored content fingerprint for a
// (sku, store_id) key, reporting whether the document exists.
func (s *ProductStore) FindFingerprint(ctx context.Context, collection string, sku, storeID int) (string, bool, error) {
	table, err := collectionTable(collection)
	if err != nil {
		return "", false, err
	}
	var fingerprint string
	err = s.pool.QueryRow(ctx, fmt.Sprintf(findFingerprintSQL, table), sku, storeID).Scan(&fingerprint)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find fingerprint: %w", err)
	}
	return fingerprint, true, nil
}

func collectionTable(collection string) (string, error) {
	if !validTableName.MatchString(collection) {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return collection, nil
}
