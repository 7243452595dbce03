package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/dedup"
	"github.com/pricewatch-vn/grocery-crawler/internal/metrics"
)

// CatalogClient is the per-session vendor API surface a run needs.
type CatalogClient interface {
	catalog.ProductFetcher
	FetchStores(ctx context.Context, provinceID, districtID, wardID, pageSize int) ([]catalog.Store, error)
	FetchCategorySources(ctx context.Context, store catalog.Store) ([]catalog.CategorySource, error)
	Chain() catalog.Chain
	ProductBaseURL() string
}

// ClientFactory builds a vendor client for a chain, bound to an acquired
// session.
type ClientFactory func(chain catalog.Chain, session catalog.Session) (CatalogClient, error)

// RunFinder loads previously recorded run summaries.
type RunFinder interface {
	GetRun(ctx context.Context, runID string) (catalog.RunSummary, bool, error)
}

// RunnerConfig controls crawl run orchestration.
type RunnerConfig struct {
	Concurrency   int
	QueueCapacity int
	PageSize      int
	StorePageSize int
	Provinces     []int
	Topic         string
}

// Deps bundles the collaborators a Runner needs.
type Deps struct {
	Sessions   catalog.SessionProvider
	Clients    ClientFactory
	Store      catalog.ProductStore
	Directory  catalog.StoreDirectory
	Recorder   catalog.RunRecorder
	Finder     RunFinder
	Translator catalog.Translator
	Publisher  catalog.Publisher
	Clock      catalog.Clock
	IDs        catalog.IDGenerator
	Logger     *zap.Logger
}

// Runner orchestrates crawl runs: session acquisition, store directory
// refresh, work fan-out over the worker pool, and result aggregation.
type Runner struct {
	deps Deps
	cfg  RunnerConfig

	mu   sync.Mutex
	runs map[string]catalog.RunSummary
}

// NewRunner constructs a Runner.
func NewRunner(deps Deps, cfg RunnerConfig) *Runner {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.StorePageSize <= 0 {
		cfg.StorePageSize = 50
	}
	return &Runner{
		deps: deps,
		cfg:  cfg,
		runs: make(map[string]catalog.RunSummary),
	}
}

// Start launches a run asynchronously and returns its ID immediately.
// The run outlives the caller's request context.
func (r *Runner) Start(ctx context.Context, req catalog.RunRequest) (string, error) {
	runID, err := r.deps.IDs.NewID()
	if err != nil {
		return "", fmt.Errorf("new run id: %w", err)
	}
	r.saveRun(catalog.RunSummary{
		RunID:     runID,
		Chain:     req.Chain,
		Status:    catalog.RunStatusRunning,
		StartedAt: r.deps.Clock.Now(),
	})
	go r.execute(context.WithoutCancel(ctx), runID, req)
	return runID, nil
}

// Run executes a crawl synchronously and returns its summary.
func (r *Runner) Run(ctx context.Context, req catalog.RunRequest) (catalog.RunSummary, error) {
	runID, err := r.deps.IDs.NewID()
	if err != nil {
		return catalog.RunSummary{}, fmt.Errorf("new run id: %w", err)
	}
	summary := r.execute(ctx, runID, req)
	if summary.Status == catalog.RunStatusFailed {
		return summary, fmt.Errorf("run %s failed", runID)
	}
	return summary, nil
}

// Status reports a run's summary, preferring the in-memory state of a
// still-running crawl over the persisted record.
func (r *Runner) Status(ctx context.Context, runID string) (catalog.RunSummary, bool, error) {
	r.mu.Lock()
	summary, ok := r.runs[runID]
	r.mu.Unlock()
	if ok {
		return summary, true, nil
	}
	if r.deps.Finder == nil {
		return catalog.RunSummary{}, false, nil
	}
	return r.deps.Finder.GetRun(ctx, runID)
}

func (r *Runner) saveRun(summary catalog.RunSummary) {
	r.mu.Lock()
	r.runs[summary.RunID] = summary
	r.mu.Unlock()
}

func (r *Runner) execute(ctx context.Context, runID string, req catalog.RunRequest) catalog.RunSummary {
	logger := r.deps.Logger.With(zap.String("run_id", runID), zap.String("chain", string(req.Chain)))
	summary := catalog.RunSummary{
		RunID:      runID,
		Chain:      req.Chain,
		Status:     catalog.RunStatusRunning,
		StartedAt:  r.deps.Clock.Now(),
		ByCategory: make(map[string]catalog.BulkResult),
	}
	r.saveRun(summary)

	session, err := r.deps.Sessions.AcquireSession(ctx)
	if err != nil {
		logger.Error("session acquisition failed", zap.Error(err))
		summary.Status = catalog.RunStatusFailed
		return r.finishRun(ctx, summary, logger)
	}
	client, err := r.deps.Clients(req.Chain, session)
	if err != nil {
		logger.Error("vendor client build failed", zap.Error(err))
		summary.Status = catalog.RunStatusFailed
		return r.finishRun(ctx, summary, logger)
	}

	stores, err := r.fetchStores(ctx, client, req.StoreFilter)
	if err != nil {
		logger.Error("store directory fetch failed", zap.Error(err))
	}
	if len(stores) == 0 {
		summary.Status = catalog.RunStatusFailed
		return r.finishRun(ctx, summary, logger)
	}
	summary.StoresCount = len(stores)
	if err := r.deps.Directory.UpsertStores(ctx, stores); err != nil {
		logger.Warn("store directory upsert failed", zap.Error(err))
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = r.cfg.Concurrency
	}
	capacity := r.cfg.QueueCapacity
	if capacity <= 0 {
		capacity = concurrency * 2
	}

	queue := NewQueue(capacity)
	results := make(chan ItemResult)
	cache := dedup.NewCache(r.deps.Store, r.deps.Translator)
	workerCfg := WorkerConfig{
		Chain:          client.Chain(),
		ProductBaseURL: client.ProductBaseURL(),
		PageSize:       r.cfg.PageSize,
	}

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			NewWorker(queue, client, r.deps.Store, cache, r.deps.Clock, workerCfg, results, logger).Run(ctx)
		}()
	}

	// The producer also sends on results (failed menu items), so results
	// stays open until the workers and the producer have all returned.
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.produce(ctx, runID, client, stores, queue, results, logger)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	items, failed := 0, 0
	for res := range results {
		items++
		if res.State == catalog.WorkFailed {
			failed++
			summary.FailedItems = append(summary.FailedItems, catalog.FailedItem{
				StoreID:  res.Item.Store.StoreID,
				Category: res.Item.Category.Canonical,
				Reason:   res.Err.Error(),
			})
		}
		for coll, result := range res.ByCollection {
			merged := summary.ByCategory[coll]
			merged.Upserted += result.Upserted
			merged.Modified += result.Modified
			merged.Failed += result.Failed
			summary.ByCategory[coll] = merged
			summary.ProductsUpsert += result.Upserted
			summary.ProductsModify += result.Modified
		}
		summary.ProductsModify += res.Patched
		summary.ProductsSkip += res.Skipped
	}

	switch {
	case items > 0 && failed == 0:
		summary.Status = catalog.RunStatusSuccess
	case items > 0 && failed < items:
		summary.Status = catalog.RunStatusPartial
	default:
		summary.Status = catalog.RunStatusFailed
	}
	return r.finishRun(ctx, summary, logger)
}

// produce enqueues one work item per (store, canonical category). A store
// whose menu cannot be loaded surfaces as a failed item instead of
// silently shrinking the run.
func (r *Runner) produce(
	ctx context.Context,
	runID string,
	client CatalogClient,
	stores []catalog.Store,
	queue *Queue,
	results chan<- ItemResult,
	logger *zap.Logger,
) {
	defer queue.Close()
	for _, store := range stores {
		sources, err := client.FetchCategorySources(ctx, store)
		if err != nil {
			logger.Warn("category menu fetch failed",
				zap.Int("store_id", store.StoreID), zap.Error(err))
			results <- ItemResult{
				Item:  catalog.WorkItem{RunID: runID, Store: store},
				State: catalog.WorkFailed,
				Err:   fmt.Errorf("category menu: %w", err),
			}
			continue
		}
		for _, src := range sources {
			item := catalog.WorkItem{RunID: runID, Store: store, Category: src}
			if err := queue.Enqueue(ctx, item); err != nil {
				return
			}
		}
	}
}

func (r *Runner) fetchStores(ctx context.Context, client CatalogClient, filter []int) ([]catalog.Store, error) {
	provinces := r.cfg.Provinces
	if len(provinces) == 0 {
		provinces = []int{0}
	}
	var stores []catalog.Store
	var firstErr error
	for _, province := range provinces {
		batch, err := client.FetchStores(ctx, province, 0, 0, r.cfg.StorePageSize)
		stores = append(stores, batch...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if len(filter) > 0 {
		wanted := make(map[int]bool, len(filter))
		for _, id := range filter {
			wanted[id] = true
		}
		kept := stores[:0]
		for _, store := range stores {
			if wanted[store.StoreID] {
				kept = append(kept, store)
			}
		}
		stores = kept
	}
	return stores, firstErr
}

func (r *Runner) finishRun(ctx context.Context, summary catalog.RunSummary, logger *zap.Logger) catalog.RunSummary {
	summary.FinishedAt = r.deps.Clock.Now()
	summary.ProcessingTime = summary.FinishedAt.Sub(summary.StartedAt).Seconds()
	metrics.ObserveRunDuration(string(summary.Chain), string(summary.Status), summary.ProcessingTime)

	if err := r.deps.Recorder.RecordRun(ctx, summary); err != nil {
		logger.Error("run record failed", zap.Error(err))
	}
	if r.deps.Publisher != nil && r.cfg.Topic != "" {
		if _, err := r.deps.Publisher.Publish(ctx, r.cfg.Topic, summary); err != nil {
			logger.Error("run publish failed", zap.Error(err))
		}
	}
	r.saveRun(summary)

	logger.Info("run finished",
		zap.String("status", string(summary.Status)),
		zap.Int("stores", summary.StoresCount),
		zap.Int("upserted", summary.ProductsUpsert),
		zap.Int("modified", summary.ProductsModify),
		zap.Int("skipped", summary.ProductsSkip),
		zap.Int("failed_items", len(summary.FailedItems)),
		zap.Float64("seconds", summary.ProcessingTime),
	)
	return summary
}
