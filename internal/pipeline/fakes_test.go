package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/taxonomy"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("run-%d", s.n), nil
}

type staticSessions struct {
	session catalog.Session
	err     error
}

func (s staticSessions) AcquireSession(context.Context) (catalog.Session, error) {
	return s.session, s.err
}

type prefixTranslator struct {
	mu    sync.Mutex
	calls int
}

func (tr *prefixTranslator) Translate(_ context.Context, text string) (string, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls++
	return "en " + text, nil
}

type storedDoc struct {
	product catalog.CanonicalProduct
}

// memStore is an in-memory stand-in for the Postgres product store. It
// also records the store directory and run summaries.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]storedDoc
	patches []catalog.PricePatch
	stores  []catalog.Store
	runs    map[string]catalog.RunSummary

	upsertErr error
}

func newMemStore() *memStore {
	return &memStore{
		docs: make(map[string]map[string]storedDoc),
		runs: make(map[string]catalog.RunSummary),
	}
}

func docKey(sku, storeID int) string { return fmt.Sprintf("%d/%d", sku, storeID) }

func (m *memStore) seed(collection string, p catalog.CanonicalProduct) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]storedDoc)
	}
	m.docs[collection][docKey(p.SKU, p.StoreID)] = storedDoc{product: p}
}

func (m *memStore) UpsertProducts(_ context.Context, products []catalog.CanonicalProduct) (map[string]catalog.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	results := make(map[string]catalog.BulkResult)
	for _, p := range products {
		coll := taxonomy.CollectionName(p.Category)
		if m.docs[coll] == nil {
			m.docs[coll] = make(map[string]storedDoc)
		}
		key := docKey(p.SKU, p.StoreID)
		result := results[coll]
		if _, exists := m.docs[coll][key]; exists {
			result.Modified++
		} else {
			result.Upserted++
		}
		results[coll] = result
		m.docs[coll][key] = storedDoc{product: p}
	}
	return results, nil
}

func (m *memStore) PatchPrices(_ context.Context, patches []catalog.PricePatch) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	patched := 0
	for _, patch := range patches {
		key := docKey(patch.SKU, patch.StoreID)
		if doc, ok := m.docs[patch.Collection][key]; ok {
			doc.product.Price = patch.Price
			doc.product.Fingerprint = patch.Fingerprint
			m.docs[patch.Collection][key] = doc
			patched++
		}
	}
	m.patches = append(m.patches, patches...)
	return patched, nil
}

func (m *memStore) FindTranslation(_ context.Context, collection, name string) (catalog.Translation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs[collection] {
		if doc.product.Name == name && doc.product.NameEN != "" {
			return catalog.Translation{
				NameEN:      doc.product.NameEN,
				TokenNgrams: doc.product.TokenNgrams,
			}, true, nil
		}
	}
	return catalog.Translation{}, false, nil
}

func (m *memStore) FindFingerprint(_ context.Context, collection string, sku, storeID int) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][docKey(sku, storeID)]
	if !ok {
		return "", false, nil
	}
	return doc.product.Fingerprint, true, nil
}

func (m *memStore) UpsertStores(_ context.Context, stores []catalog.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, stores...)
	return nil
}

func (m *memStore) RecordRun(_ context.Context, summary catalog.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[summary.RunID] = summary
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (catalog.RunSummary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary, ok := m.runs[runID]
	return summary, ok, nil
}

type capturedEvent struct {
	Topic   string
	Payload any
}

type memPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *memPublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Topic: topic, Payload: payload})
	return fmt.Sprintf("msg-%d", len(p.events)), nil
}

// fakeClient is a canned vendor API client. menuFn, when set, overrides
// the canned menu responses entirely.
type fakeClient struct {
	chain    catalog.Chain
	stores   []catalog.Store
	sources  map[int][]catalog.CategorySource
	menuErr  map[int]error
	menuFn   func(ctx context.Context, store catalog.Store) ([]catalog.CategorySource, error)
	products map[string][]catalog.RawProduct
	fetchErr map[string]error
}

func (c *fakeClient) Chain() catalog.Chain   { return c.chain }
func (c *fakeClient) ProductBaseURL() string { return "https://example.com" }

func (c *fakeClient) FetchStores(context.Context, int, int, int, int) ([]catalog.Store, error) {
	return c.stores, nil
}

func (c *fakeClient) FetchCategorySources(ctx context.Context, store catalog.Store) ([]catalog.CategorySource, error) {
	if c.menuFn != nil {
		return c.menuFn(ctx, store)
	}
	if err := c.menuErr[store.StoreID]; err != nil {
		return nil, err
	}
	return c.sources[store.StoreID], nil
}

func (c *fakeClient) FetchAll(_ context.Context, _ catalog.Store, ref string, _ int) ([]catalog.RawProduct, error) {
	return c.products[ref], c.fetchErr[ref]
}

func rawProduct(id int, name string, price float64) catalog.RawProduct {
	return catalog.RawProduct{
		ID:     id,
		Name:   name,
		Unit:   "g",
		URL:    fmt.Sprintf("/p/%d", id),
		Prices: []catalog.VendorPrice{{Price: price, SysPrice: price}},
	}
}
