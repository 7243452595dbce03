package normalize

import "github.com/pricewatch-vn/grocery-crawler/internal/catalog"

// ExtractBestPrice resolves the price for a raw product. A time-boxed
// campaign price always wins over the base price; this is a strict
// either/or, never a minimum of the two. With no price entries at all the
// returned fields are nil.
func ExtractBestPrice(raw catalog.RawProduct) catalog.PriceInfo {
	if len(raw.Campaigns) > 0 {
		return buildPriceInfo(raw.Campaigns[0].ProductPrice)
	}
	if len(raw.Prices) > 0 {
		return buildPriceInfo(raw.Prices[0])
	}
	return catalog.PriceInfo{}
}

func buildPriceInfo(p catalog.VendorPrice) catalog.PriceInfo {
	begin := firstNonEmpty(p.StartTime, p.PODate)
	end := firstNonEmpty(p.DueTime, p.PODate)
	info := catalog.PriceInfo{
		Price:           floatPtr(p.Price),
		SysPrice:        floatPtr(p.SysPrice),
		DiscountPercent: floatPtr(p.DiscountPercent),
	}
	if begin != "" {
		info.DateBegin = &begin
	}
	if end != "" {
		info.DateEnd = &end
	}
	return info
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func floatPtr(v float64) *float64 {
	return &v
}
