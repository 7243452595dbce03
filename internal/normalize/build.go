package normalize

import (
	"time"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// Build normalizes one raw vendor record into a canonical product. The
// translation fields (NameEN, TokenNgrams) and the content fingerprint
// are left empty; the dedup cache fills them. Records without a SKU or a
// display name are skipped, not errored.
func Build(raw catalog.RawProduct, chain catalog.Chain, storeID int, category, productBaseURL string, now time.Time) Result {
	if raw.ID == 0 {
		return Skip(ReasonMissingSKU)
	}
	if raw.Name == "" {
		return Skip(ReasonEmptyName)
	}

	value, unit := NormalizeNetValue(raw.Unit, raw.NetUnitValue, raw.Name)

	return Ok(catalog.CanonicalProduct{
		SKU:          raw.ID,
		StoreID:      storeID,
		Chain:        chain,
		Category:     category,
		Name:         raw.Name,
		Unit:         unit,
		NetUnitValue: value,
		Price:        ExtractBestPrice(raw),
		Promotion:    raw.PromotionText,
		URL:          productBaseURL + raw.URL,
		Image:        raw.Avatar,
		CrawledAt:    now,
	})
}
