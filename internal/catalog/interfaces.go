package catalog

import (
	"context"
	"time"
)

// SessionProvider acquires the auth token and device identifier used for
// all vendor API calls in a run.
type SessionProvider interface {
	AcquireSession(ctx context.Context) (Session, error)
}

// Translator converts a vendor product name into English. An empty result
// means the product cannot become canonical and is skipped.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ProductFetcher drives one (store, category ref) pagination loop.
// A partial batch is returned together with the error that ended the loop.
type ProductFetcher interface {
	FetchAll(ctx context.Context, store Store, categoryRef string, pageSize int) ([]RawProduct, error)
}

// ProductStore persists canonical products grouped by category collection.
type ProductStore interface {
	UpsertProducts(ctx context.Context, products []CanonicalProduct) (map[string]BulkResult, error)
	PatchPrices(ctx context.Context, patches []PricePatch) (int, error)
	FindTranslation(ctx context.Context, collection, name string) (Translation, bool, error)
	FindFingerprint(ctx context.Context, collection string, sku, storeID int) (string, bool, error)
}

// StoreDirectory persists the chain's store directory.
type StoreDirectory interface {
	UpsertStores(ctx context.Context, stores []Store) error
}

// RunRecorder persists run summaries for later inspection.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary RunSummary) error
}

// Publisher pushes run-completion events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Archive stores raw vendor payloads for replay and debugging.
type Archive interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
