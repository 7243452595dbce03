package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/metrics"
)

type listingEnvelope struct {
	Data *listingData `json:"data"`
}

type listingData struct {
	Products []catalog.RawProduct `json:"products"`
	Total    int                  `json:"total"`
}

// FetchAll walks one (store, category ref) pagination loop. Pages are
// requested strictly in order because the continuation decision depends
// on the previous page's reported total. A transport error, non-200
// status, or malformed payload terminates this loop only; whatever was
// accumulated is returned alongside the error so partial results can
// still be normalized and persisted. There is no per-page retry.
func (c *Client) FetchAll(ctx context.Context, store catalog.Store, categoryRef string, pageSize int) ([]catalog.RawProduct, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	var accumulated []catalog.RawProduct
	for page := 1; ; page++ {
		if page > 1 {
			if err := c.limiter.Wait(ctx); err != nil {
				return accumulated, fmt.Errorf("inter-page delay: %w", err)
			}
		}

		batch, total, err := c.fetchPage(ctx, store, categoryRef, pageSize, page)
		if err != nil {
			metrics.IncPage(string(c.chain), "error")
			c.logger.Warn("listing page fetch failed, keeping partial results",
				zap.Int("store_id", store.StoreID),
				zap.String("category_ref", categoryRef),
				zap.Int("page", page),
				zap.Int("accumulated", len(accumulated)),
				zap.Error(err),
			)
			return accumulated, err
		}
		metrics.IncPage(string(c.chain), "ok")

		if len(batch) == 0 {
			return accumulated, nil
		}
		accumulated = append(accumulated, batch...)
		if len(accumulated) >= total {
			return accumulated, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, store catalog.Store, categoryRef string, pageSize, page int) ([]catalog.RawProduct, int, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"provinceId":  strconv.Itoa(store.ProvinceID),
			"wardId":      strconv.Itoa(store.WardID),
			"districtId":  strconv.Itoa(store.DistrictID),
			"storeId":     strconv.Itoa(store.StoreID),
			"categoryUrl": categoryRef,
			"isMobile":    "true",
			"isV2":        "true",
			"pageSize":    strconv.Itoa(pageSize),
			"page":        strconv.Itoa(page),
		}).
		Get(c.cfg.ListingURL)
	if err != nil {
		return nil, 0, fmt.Errorf("listing request page %d: %w", page, err)
	}
	if resp.StatusCode() != 200 {
		return nil, 0, fmt.Errorf("listing request page %d: status %d", page, resp.StatusCode())
	}

	c.archivePage(ctx, store, categoryRef, page, resp.Body())

	var envelope listingEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, 0, fmt.Errorf("decode listing page %d: %w", page, err)
	}
	if envelope.Data == nil {
		return nil, 0, fmt.Errorf("listing page %d: payload has no data field", page)
	}
	return envelope.Data.Products, envelope.Data.Total, nil
}

func (c *Client) archivePage(ctx context.Context, store catalog.Store, categoryRef string, page int, body []byte) {
	if c.archive == nil {
		return
	}
	path := fmt.Sprintf("%s/%d/%s/%d.json", c.chain, store.StoreID, categoryRef, page)
	if _, err := c.archive.PutObject(ctx, path, "application/json", body); err != nil {
		c.logger.Warn("archive listing page failed", zap.String("path", path), zap.Error(err))
	}
}
