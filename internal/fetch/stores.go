package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

type storesEnvelope struct {
	Data *storesData `json:"data"`
}

type storesData struct {
	Stores []vendorStore `json:"stores"`
	Total  int           `json:"total"`
}

type vendorStore struct {
	StoreID       int     `json:"storeId"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	StoreLocation string  `json:"storeLocation"`
	ProvinceID    int     `json:"provinceId"`
	Province      string  `json:"province"`
	DistrictID    int     `json:"districtId"`
	District      string  `json:"district"`
	WardID        int     `json:"wardId"`
	Ward          string  `json:"ward"`
	IsVirtual     bool    `json:"isStoreVirtual"`
	OpenHour      string  `json:"openHour"`
	Phone         string  `json:"phone"`
	Status        string  `json:"status"`
}

// FetchStores pages through the store directory for one province. The
// loop shape matches the listing fetch: empty batch or accumulated >=
// total stops, any failure returns what was accumulated so far.
func (c *Client) FetchStores(ctx context.Context, provinceID, districtID, wardID, pageSize int) ([]catalog.Store, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	var stores []catalog.Store
	for pageIndex := 0; ; pageIndex++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"provinceId": strconv.Itoa(provinceID),
				"districtId": strconv.Itoa(districtID),
				"wardId":     strconv.Itoa(wardID),
				"pageSize":   strconv.Itoa(pageSize),
				"pageIndex":  strconv.Itoa(pageIndex),
			}).
			Get(c.cfg.StoresURL)
		if err != nil {
			return stores, fmt.Errorf("stores request page %d: %w", pageIndex, err)
		}
		if resp.StatusCode() != 200 {
			return stores, fmt.Errorf("stores request page %d: status %d", pageIndex, resp.StatusCode())
		}

		var envelope storesEnvelope
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
			return stores, fmt.Errorf("decode stores page %d: %w", pageIndex, err)
		}
		if envelope.Data == nil {
			return stores, fmt.Errorf("stores page %d: payload has no data field", pageIndex)
		}

		if len(envelope.Data.Stores) == 0 {
			return stores, nil
		}
		for _, vs := range envelope.Data.Stores {
			stores = append(stores, c.toStore(vs))
		}
		if len(stores) >= envelope.Data.Total {
			return stores, nil
		}
	}
}

func (c *Client) toStore(vs vendorStore) catalog.Store {
	name, location := parseStoreLine(vs.StoreLocation)
	return catalog.Store{
		StoreID:    vs.StoreID,
		Chain:      c.chain,
		Name:       name,
		Location:   location,
		Latitude:   vs.Lat,
		Longitude:  vs.Lng,
		ProvinceID: vs.ProvinceID,
		Province:   vs.Province,
		DistrictID: vs.DistrictID,
		District:   vs.District,
		WardID:     vs.WardID,
		Ward:       vs.Ward,
		Virtual:    vs.IsVirtual,
		OpenHour:   vs.OpenHour,
		Phone:      vs.Phone,
		Status:     vs.Status,
	}
}

var reParenthetical = regexp.MustCompile(`\([^)]*\)`)

// parseStoreLine splits the vendor's "Name (address (note), district)"
// display line into a store name and a cleaned location. The address part
// is the content of the first balanced parenthesis group with any nested
// parentheticals removed.
func parseStoreLine(s string) (name, location string) {
	name = strings.TrimSpace(strings.SplitN(s, "(", 2)[0])

	start := strings.Index(s, "(")
	if start == -1 {
		return name, ""
	}
	level := 0
	end := -1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			level++
		case ')':
			level--
			if level == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	content := ""
	if end != -1 {
		content = s[start+1 : end]
	}
	location = strings.TrimSpace(reParenthetical.ReplaceAllString(content, ""))
	location = strings.TrimSpace(strings.Trim(location, ","))
	return name, location
}
