package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/dedup"
	"github.com/pricewatch-vn/grocery-crawler/internal/metrics"
	"github.com/pricewatch-vn/grocery-crawler/internal/normalize"
	"github.com/pricewatch-vn/grocery-crawler/internal/taxonomy"
)

// WorkerConfig controls Worker behavior.
type WorkerConfig struct {
	Chain          catalog.Chain
	ProductBaseURL string
	PageSize       int
}

// ItemResult is the outcome of one processed work item. A failed item may
// still carry counts: everything fetched before the failure is persisted.
type ItemResult struct {
	Item         catalog.WorkItem
	State        catalog.WorkState
	ByCollection map[string]catalog.BulkResult
	Skipped      int
	Patched      int
	Err          error
}

// Worker consumes work items and executes the fetch-normalize-persist
// cycle for each.
type Worker struct {
	queue   *Queue
	fetcher catalog.ProductFetcher
	store   catalog.ProductStore
	cache   *dedup.Cache
	clock   catalog.Clock
	cfg     WorkerConfig
	results chan<- ItemResult
	logger  *zap.Logger
}

// NewWorker constructs a Worker.
func NewWorker(
	queue *Queue,
	fetcher catalog.ProductFetcher,
	store catalog.ProductStore,
	cache *dedup.Cache,
	clock catalog.Clock,
	cfg WorkerConfig,
	results chan<- ItemResult,
	logger *zap.Logger,
) *Worker {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:   queue,
		fetcher: fetcher,
		store:   store,
		cache:   cache,
		clock:   clock,
		cfg:     cfg,
		results: results,
		logger:  logger,
	}
}

// Run blocks, consuming work items until the queue closes or the context
// finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued work item",
			zap.String("run_id", item.RunID),
			zap.Int("store_id", item.Store.StoreID),
			zap.String("category", item.Category.Canonical),
		)
		w.results <- w.processItem(ctx, item)
	}
}

func (w *Worker) processItem(ctx context.Context, item catalog.WorkItem) ItemResult {
	metrics.WorkItemStarted()
	defer metrics.WorkItemDone()

	res := ItemResult{
		Item:         item,
		State:        catalog.WorkFetching,
		ByCollection: make(map[string]catalog.BulkResult),
	}

	raws, fetchErr := w.fetchItem(ctx, item)
	res.Err = fetchErr

	res.State = catalog.WorkNormalizing
	full, patches := w.normalizeBatch(ctx, item, raws, &res)

	if err := w.persistBatch(ctx, full, patches, &res); err != nil && res.Err == nil {
		res.Err = err
	}

	if res.Err != nil {
		res.State = catalog.WorkFailed
		w.logger.Warn("work item failed, partial results kept",
			zap.String("run_id", item.RunID),
			zap.Int("store_id", item.Store.StoreID),
			zap.String("category", item.Category.Canonical),
			zap.Error(res.Err),
		)
		return res
	}
	res.State = catalog.WorkPersisted
	return res
}

// fetchItem drains every vendor ref feeding the item's canonical
// category. A ref failure ends that ref's pagination but the remaining
// refs are still attempted and the accumulated batch is kept.
func (w *Worker) fetchItem(ctx context.Context, item catalog.WorkItem) ([]catalog.RawProduct, error) {
	var raws []catalog.RawProduct
	var firstErr error
	for _, ref := range item.Category.Refs {
		batch, err := w.fetcher.FetchAll(ctx, item.Store, ref, w.cfg.PageSize)
		raws = append(raws, batch...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return raws, firstErr
}

func (w *Worker) normalizeBatch(
	ctx context.Context,
	item catalog.WorkItem,
	raws []catalog.RawProduct,
	res *ItemResult,
) ([]catalog.CanonicalProduct, []catalog.PricePatch) {
	chain := string(w.cfg.Chain)
	collection := taxonomy.CollectionName(item.Category.Canonical)
	now := w.clock.Now()

	var full []catalog.CanonicalProduct
	var patches []catalog.PricePatch
	for _, raw := range raws {
		nres := normalize.Build(raw, w.cfg.Chain, item.Store.StoreID, item.Category.Canonical, w.cfg.ProductBaseURL, now)
		if nres.Kind != normalize.KindOk {
			metrics.IncProduct(chain, "skip")
			metrics.IncDropped(chain, nres.Reason)
			res.Skipped++
			continue
		}
		product := nres.Product

		tr, hit, err := w.cache.Resolve(ctx, collection, product.Name)
		if err != nil {
			if errors.Is(err, dedup.ErrEmptyTranslation) {
				metrics.IncProduct(chain, "skip")
				metrics.IncDropped(chain, normalize.ReasonEmptyTranslation)
				res.Skipped++
				continue
			}
			metrics.IncProduct(chain, "error")
			if res.Err == nil {
				res.Err = err
			}
			continue
		}
		metrics.IncTranslationLookup(hit)
		product.NameEN = tr.NameEN
		product.TokenNgrams = tr.TokenNgrams
		product.Fingerprint = dedup.Fingerprint(product.SKU, product.Price)

		decision, err := w.cache.Decide(ctx, collection, product.SKU, product.StoreID, product.Fingerprint)
		if err != nil {
			// Lookup failure defaults to a full write, which is always safe.
			w.logger.Warn("fingerprint lookup failed", zap.Int("sku", product.SKU), zap.Error(err))
			decision = dedup.WriteFull
		}
		switch decision {
		case dedup.WriteSkip:
			metrics.IncProduct(chain, "skip")
			res.Skipped++
		case dedup.WritePatch:
			metrics.IncProduct(chain, "ok")
			patches = append(patches, catalog.PricePatch{
				Collection:  collection,
				SKU:         product.SKU,
				StoreID:     product.StoreID,
				Price:       product.Price,
				Fingerprint: product.Fingerprint,
				CrawledAt:   now,
			})
		default:
			metrics.IncProduct(chain, "ok")
			full = append(full, product)
		}
	}
	return full, patches
}

func (w *Worker) persistBatch(
	ctx context.Context,
	full []catalog.CanonicalProduct,
	patches []catalog.PricePatch,
	res *ItemResult,
) error {
	var firstErr error
	if len(full) > 0 {
		results, err := w.store.UpsertProducts(ctx, full)
		for coll, result := range results {
			merged := res.ByCollection[coll]
			merged.Upserted += result.Upserted
			merged.Modified += result.Modified
			merged.Failed += result.Failed
			res.ByCollection[coll] = merged
		}
		if err != nil {
			firstErr = err
		}
	}
	if len(patches) > 0 {
		patched, err := w.store.PatchPrices(ctx, patches)
		res.Patched = patched
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
