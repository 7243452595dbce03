// Package dedup avoids redundant expensive text processing: translations
// are reused across products sharing the same vendor name, and unchanged
// documents are detected by content fingerprint so their writes can be
// skipped or reduced to a price-only patch.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/normalize"
)

// ErrEmptyTranslation signals that the translator produced nothing usable;
// the product is soft-skipped for this run.
var ErrEmptyTranslation = errors.New("translator returned empty result")

// Cache resolves (name_en, token_ngrams) pairs for vendor names.
// Translation is a pure function of the name string, so any persisted
// document with the same name (any store) is a valid source. Names
// resolved during the current run are remembered in-process so sibling
// work items never re-translate them either.
type Cache struct {
	store      catalog.ProductStore
	translator catalog.Translator
	ngramSize  int

	mu   sync.Mutex
	seen map[string]catalog.Translation
}

// NewCache builds a Cache over the given store and translator.
func NewCache(store catalog.ProductStore, translator catalog.Translator) *Cache {
	return &Cache{
		store:      store,
		translator: translator,
		ngramSize:  normalize.DefaultNgramSize,
		seen:       make(map[string]catalog.Translation),
	}
}

// Resolve returns the translation for a vendor name, reusing a persisted
// or in-run value when one exists. The second return reports whether the
// value came from a cache rather than the translator.
func (c *Cache) Resolve(ctx context.Context, collection, name string) (catalog.Translation, bool, error) {
	c.mu.Lock()
	if tr, ok := c.seen[name]; ok {
		c.mu.Unlock()
		return tr, true, nil
	}
	c.mu.Unlock()

	if tr, ok, err := c.store.FindTranslation(ctx, collection, name); err == nil && ok {
		c.remember(name, tr)
		return tr, true, nil
	} else if err != nil {
		return catalog.Translation{}, false, fmt.Errorf("translation lookup: %w", err)
	}

	nameEN, err := c.translator.Translate(ctx, name)
	if err != nil {
		return catalog.Translation{}, false, fmt.Errorf("translate %q: %w", name, err)
	}
	if nameEN == "" {
		return catalog.Translation{}, false, ErrEmptyTranslation
	}

	tr := catalog.Translation{
		NameEN:      nameEN,
		TokenNgrams: normalize.TokenNgrams(nameEN, c.ngramSize),
	}
	c.remember(name, tr)
	return tr, false, nil
}

func (c *Cache) remember(name string, tr catalog.Translation) {
	c.mu.Lock()
	c.seen[name] = tr
	c.mu.Unlock()
}

// WriteDecision says how an already-normalized product should reach the
// store.
type WriteDecision int

// Write decisions, from heaviest to lightest.
const (
	WriteFull WriteDecision = iota
	WritePatch
	WriteSkip
)

// Decide compares the product's fingerprint against the persisted one for
// its (sku, store_id) key. No document means a full write; an identical
// fingerprint means nothing changed and the write is skipped; a differing
// one means only price fields moved, so a patch suffices.
func (c *Cache) Decide(ctx context.Context, collection string, sku, storeID int, fingerprint string) (WriteDecision, error) {
	existing, ok, err := c.store.FindFingerprint(ctx, collection, sku, storeID)
	if err != nil {
		return WriteFull, fmt.Errorf("fingerprint lookup: %w", err)
	}
	if !ok {
		return WriteFull, nil
	}
	if existing == fingerprint {
		return WriteSkip, nil
	}
	return WritePatch, nil
}

// Fingerprint hashes the change-relevant content of a product: sku, price,
// and discount. Equal fingerprints mean a re-crawl observed nothing new.
func Fingerprint(sku int, price catalog.PriceInfo) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(sku)))
	h.Write([]byte{'|'})
	h.Write([]byte(formatFloat(price.Price)))
	h.Write([]byte{'|'})
	h.Write([]byte(formatFloat(price.DiscountPercent)))
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
