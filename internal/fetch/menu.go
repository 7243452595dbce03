package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
	"github.com/pricewatch-vn/grocery-crawler/internal/taxonomy"
)

type menuEnvelope struct {
	Data *menuData `json:"data"`
}

type menuData struct {
	Menus []menuEntry `json:"menus"`
}

type menuEntry struct {
	Name     string      `json:"name"`
	Children []menuChild `json:"childrens"`
}

type menuChild struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FetchCategorySources loads the category menu for a store and remaps the
// vendor child categories onto the canonical taxonomy. Children without a
// mapping entry are dropped; several vendor slugs may feed one canonical
// category, so refs are grouped and deduplicated per canonical name.
func (c *Client) FetchCategorySources(ctx context.Context, store catalog.Store) ([]catalog.CategorySource, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ProvinceId": strconv.Itoa(store.ProvinceID),
			"WardId":     strconv.Itoa(store.WardID),
			"StoreId":    strconv.Itoa(store.StoreID),
		}).
		Get(c.cfg.MenuURL)
	if err != nil {
		return nil, fmt.Errorf("menu request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("menu request: status %d", resp.StatusCode())
	}

	var envelope menuEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("menu payload has no data field")
	}

	grouped := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, menu := range envelope.Data.Menus {
		for _, child := range menu.Children {
			canonical, ok := taxonomy.Canonical(c.chain, child.Name)
			if !ok {
				c.logger.Debug("vendor category without mapping, dropping",
					zap.String("vendor_name", child.Name),
					zap.Int("vendor_id", child.ID),
				)
				continue
			}
			if child.URL == "" {
				continue
			}
			if seen[canonical] == nil {
				seen[canonical] = make(map[string]bool)
			}
			if seen[canonical][child.URL] {
				continue
			}
			seen[canonical][child.URL] = true
			grouped[canonical] = append(grouped[canonical], child.URL)
		}
	}

	sources := make([]catalog.CategorySource, 0, len(grouped))
	for canonical, refs := range grouped {
		sources = append(sources, catalog.CategorySource{Canonical: canonical, Refs: refs})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Canonical < sources[j].Canonical })
	return sources, nil
}
