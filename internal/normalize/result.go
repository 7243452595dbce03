// Package normalize converts raw vendor product records into canonical
// products: price selection, quantity/unit canonicalization, and search
// token generation. Quantity parsing is a priority-ordered table of pure
// rules because the vendor's structured unit fields are frequently wrong;
// name-embedded signals win where they exist.
package normalize

import "github.com/pricewatch-vn/grocery-crawler/internal/catalog"

// Kind tags a normalization outcome so callers cannot mistake an
// intentional skip for success.
type Kind int

// Normalization outcomes.
const (
	KindOk Kind = iota
	KindSkip
	KindError
)

// Skip reasons.
const (
	ReasonMissingSKU       = "missing_sku"
	ReasonEmptyName        = "empty_name"
	ReasonEmptyTranslation = "empty_translation"
)

// Result is the tagged outcome of normalizing one raw record.
type Result struct {
	Kind    Kind
	Product catalog.CanonicalProduct
	Reason  string
	Err     error
}

// Ok wraps a successfully normalized product.
func Ok(p catalog.CanonicalProduct) Result {
	return Result{Kind: KindOk, Product: p}
}

// Skip marks a record as intentionally excluded.
func Skip(reason string) Result {
	return Result{Kind: KindSkip, Reason: reason}
}

// Error marks a record that failed to normalize.
func Error(err error) Result {
	return Result{Kind: KindError, Err: err}
}
