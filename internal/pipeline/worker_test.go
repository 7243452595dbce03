package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/dedup"
)

func testWorkItem() catalog.WorkItem {
	return catalog.WorkItem{
		RunID: "run-1",
		Store: catalog.Store{StoreID: 2087, Chain: catalog.ChainBHX},
		Category: catalog.CategorySource{
			Canonical: "Fresh Meat",
			Refs:      []string{"thit-heo", "thit-bo"},
		},
	}
}

func newTestWorker(client *fakeClient, store *memStore, results chan ItemResult) *Worker {
	cache := dedup.NewCache(store, &prefixTranslator{})
	clock := fixedClock{t: time.Unix(1700000000, 0).UTC()}
	cfg := WorkerConfig{Chain: catalog.ChainBHX, ProductBaseURL: "https://example.com", PageSize: 50}
	return NewWorker(NewQueue(1), client, store, cache, clock, cfg, results, nil)
}

func TestWorkerProcessesItemAcrossRefs(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chain: catalog.ChainBHX,
		products: map[string][]catalog.RawProduct{
			"thit-heo": {
				rawProduct(11, "Thịt heo ba rọi 500g", 98000),
				{ID: 12, Unit: "g"}, // no display name, skipped
			},
			"thit-bo": {rawProduct(21, "Thịt bò xay 300g", 65000)},
		},
	}
	store := newMemStore()
	w := newTestWorker(client, store, nil)

	res := w.processItem(context.Background(), testWorkItem())
	require.Equal(t, catalog.WorkPersisted, res.State)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, catalog.BulkResult{Upserted: 2}, res.ByCollection["fresh_meat"])

	// Translation and fingerprint are filled before persistence.
	persisted := store.docs["fresh_meat"][docKey(11, 2087)].product
	require.Equal(t, "en Thịt heo ba rọi 500g", persisted.NameEN)
	require.NotEmpty(t, persisted.TokenNgrams)
	require.NotEmpty(t, persisted.Fingerprint)
}

func TestWorkerSkipsUnchangedDocuments(t *testing.T) {
	t.Parallel()

	raw := rawProduct(11, "Thịt heo ba rọi 500g", 98000)
	price, discount := 98000.0, 0.0
	seeded := catalog.CanonicalProduct{
		SKU:      11,
		StoreID:  2087,
		Category: "Fresh Meat",
		Name:     raw.Name,
		NameEN:   "en Thịt heo ba rọi 500g",
		Fingerprint: dedup.Fingerprint(11, catalog.PriceInfo{
			Price:           &price,
			DiscountPercent: &discount,
		}),
	}

	client := &fakeClient{
		chain:    catalog.ChainBHX,
		products: map[string][]catalog.RawProduct{"thit-heo": {raw}},
	}
	store := newMemStore()
	store.seed("fresh_meat", seeded)

	w := newTestWorker(client, store, nil)
	item := testWorkItem()
	item.Category.Refs = []string{"thit-heo"}

	res := w.processItem(context.Background(), item)
	require.Equal(t, catalog.WorkPersisted, res.State)
	require.Equal(t, 1, res.Skipped)
	require.Empty(t, res.ByCollection)
	require.Zero(t, res.Patched)
}

func TestWorkerPatchesChangedPrices(t *testing.T) {
	t.Parallel()

	raw := rawProduct(11, "Thịt heo ba rọi 500g", 89000) // price moved
	seeded := catalog.CanonicalProduct{
		SKU:         11,
		StoreID:     2087,
		Category:    "Fresh Meat",
		Name:        raw.Name,
		NameEN:      "en Thịt heo ba rọi 500g",
		Fingerprint: "stale",
	}

	client := &fakeClient{
		chain:    catalog.ChainBHX,
		products: map[string][]catalog.RawProduct{"thit-heo": {raw}},
	}
	store := newMemStore()
	store.seed("fresh_meat", seeded)

	w := newTestWorker(client, store, nil)
	item := testWorkItem()
	item.Category.Refs = []string{"thit-heo"}

	res := w.processItem(context.Background(), item)
	require.Equal(t, catalog.WorkPersisted, res.State)
	require.Equal(t, 1, res.Patched)
	require.Empty(t, res.ByCollection)
	require.Len(t, store.patches, 1)
	require.Equal(t, "fresh_meat", store.patches[0].Collection)
}

func TestWorkerKeepsPartialResultsOnFetchFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chain: catalog.ChainBHX,
		products: map[string][]catalog.RawProduct{
			"thit-heo": {rawProduct(11, "Thịt heo ba rọi 500g", 98000)},
		},
		fetchErr: map[string]error{"thit-bo": errors.New("listing page 3: status 500")},
	}
	store := newMemStore()
	w := newTestWorker(client, store, nil)

	res := w.processItem(context.Background(), testWorkItem())
	require.Equal(t, catalog.WorkFailed, res.State)
	require.Error(t, res.Err)
	// The ref that succeeded before the failure is still persisted.
	require.Equal(t, catalog.BulkResult{Upserted: 1}, res.ByCollection["fresh_meat"])
}

func TestWorkerRunDrainsQueueUntilClosed(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chain: catalog.ChainBHX,
		products: map[string][]catalog.RawProduct{
			"thit-heo": {rawProduct(11, "Thịt heo ba rọi 500g", 98000)},
		},
	}
	store := newMemStore()
	results := make(chan ItemResult, 2)
	w := newTestWorker(client, store, results)

	item := testWorkItem()
	item.Category.Refs = []string{"thit-heo"}
	require.NoError(t, w.queue.Enqueue(context.Background(), item))
	w.queue.Close()

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case res := <-results:
		require.Equal(t, catalog.WorkPersisted, res.State)
	case <-time.After(time.Second):
		t.Fatal("worker produced no result")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after queue close")
	}
}
