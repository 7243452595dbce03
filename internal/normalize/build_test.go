package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

func TestBuildNormalizesRecord(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)
	raw := catalog.RawProduct{
		ID:            4215,
		Name:          "Gạo ST25 1.5kg",
		Unit:          "kg",
		NetUnitValue:  1.5,
		URL:           "/gao-st25",
		Avatar:        "https://cdn.example.com/gao.jpg",
		PromotionText: "Giảm 10%",
		Prices:        []catalog.VendorPrice{{Price: 52000, SysPrice: 52000}},
	}

	res := Build(raw, catalog.ChainBHX, 1204, "Grains & Staples", "https://www.bachhoaxanh.com", now)
	require.Equal(t, KindOk, res.Kind)

	p := res.Product
	require.Equal(t, 4215, p.SKU)
	require.Equal(t, 1204, p.StoreID)
	require.Equal(t, catalog.ChainBHX, p.Chain)
	require.Equal(t, "Grains & Staples", p.Category)
	require.Equal(t, 1500.0, p.NetUnitValue)
	require.Equal(t, "g", p.Unit)
	require.Equal(t, "https://www.bachhoaxanh.com/gao-st25", p.URL)
	require.Equal(t, 52000.0, *p.Price.Price)
	require.Equal(t, now, p.CrawledAt)
	require.Empty(t, p.NameEN)
	require.Empty(t, p.TokenNgrams)
}

func TestBuildSkipsRecordsWithoutKey(t *testing.T) {
	t.Parallel()

	res := Build(catalog.RawProduct{Name: "no sku"}, catalog.ChainBHX, 1, "Milk", "", time.Now())
	require.Equal(t, KindSkip, res.Kind)
	require.Equal(t, ReasonMissingSKU, res.Reason)

	res = Build(catalog.RawProduct{ID: 9}, catalog.ChainBHX, 1, "Milk", "", time.Now())
	require.Equal(t, KindSkip, res.Kind)
	require.Equal(t, ReasonEmptyName, res.Reason)
}
