package catalog

import (
	"time"
)

// Chain identifies a retail chain whose catalog is crawled.
type Chain string

// Supported chains.
const (
	ChainBHX     Chain = "BHX"
	ChainWinMart Chain = "WM"
)

// Session carries the credentials used for every vendor API call in a run.
type Session struct {
	Token    string
	DeviceID string
}

// Store is one physical (or virtual) store in a chain's directory.
// The immutable key is (StoreID, Chain).
type Store struct {
	StoreID    int     `json:"store_id"`
	Chain      Chain   `json:"chain"`
	Name       string  `json:"store_name"`
	Location   string  `json:"store_location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ProvinceID int     `json:"province_id"`
	Province   string  `json:"province"`
	DistrictID int     `json:"district_id"`
	District   string  `json:"district"`
	WardID     int     `json:"ward_id"`
	Ward       string  `json:"ward"`
	Virtual    bool    `json:"is_store_virtual"`
	OpenHour   string  `json:"open_hour"`
	Phone      string  `json:"phone_number"`
	Status     string  `json:"store_status"`
}

// CategorySource maps one or more vendor category slugs to a canonical
// category name. Vendor categories without a mapping are dropped.
type CategorySource struct {
	Canonical string
	Refs      []string
}

// VendorPrice is one price entry as the vendor ships it, either a base
// price or a time-boxed campaign price.
type VendorPrice struct {
	Price           float64 `json:"price"`
	SysPrice        float64 `json:"sysPrice"`
	DiscountPercent float64 `json:"discountPercent"`
	StartTime       string  `json:"startTime"`
	DueTime         string  `json:"dueTime"`
	PODate          string  `json:"poDate"`
}

// VendorCampaign wraps a campaign price entry.
type VendorCampaign struct {
	ProductPrice VendorPrice `json:"productPrice"`
}

// RawProduct is the vendor-shaped record returned by a listing endpoint.
// It exists only within one fetch-normalize cycle.
type RawProduct struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	NetUnitValue  float64          `json:"netUnitValue"`
	URL           string           `json:"url"`
	Avatar        string           `json:"avatar"`
	PromotionText string           `json:"promotionText"`
	Prices        []VendorPrice    `json:"productPrices"`
	Campaigns     []VendorCampaign `json:"lstCampaingInfo"`
}

// PriceInfo is the resolved price for a canonical product. Nil pointers
// mean the vendor supplied no price information at all.
type PriceInfo struct {
	Price           *float64 `json:"price"`
	SysPrice        *float64 `json:"sys_price"`
	DiscountPercent *float64 `json:"discount_percent"`
	DateBegin       *string  `json:"date_begin"`
	DateEnd         *string  `json:"date_end"`
}

// CanonicalProduct is the persisted unit, keyed by (SKU, StoreID) within
// one category collection.
type CanonicalProduct struct {
	SKU          int       `json:"sku"`
	StoreID      int       `json:"store_id"`
	Chain        Chain     `json:"chain"`
	Category     string    `json:"category"`
	Name         string    `json:"name"`
	NameEN       string    `json:"name_en"`
	TokenNgrams  []string  `json:"token_ngrams"`
	Unit         string    `json:"unit"`
	NetUnitValue float64   `json:"net_unit_value"`
	Price        PriceInfo `json:"price_info"`
	Promotion    string    `json:"promotion"`
	URL          string    `json:"url"`
	Image        string    `json:"image"`
	Fingerprint  string    `json:"fingerprint"`
	CrawledAt    time.Time `json:"crawled_at"`
}

// PricePatch updates only the price-bearing fields of an existing document.
type PricePatch struct {
	Collection  string
	SKU         int
	StoreID     int
	Price       PriceInfo
	Fingerprint string
	CrawledAt   time.Time
}

// Translation is a cached (name_en, token_ngrams) pair reused across
// products sharing the same vendor name.
type Translation struct {
	NameEN      string
	TokenNgrams []string
}

// BulkResult reports the outcome of one bulk upsert group.
type BulkResult struct {
	Upserted int `json:"upserted"`
	Modified int `json:"modified"`
	Failed   int `json:"failed"`
}

// WorkState is the lifecycle state of one (store, category) work item.
type WorkState string

// Work item states. FAILED is terminal but partial results fetched before
// the failure still flow through normalization and persistence.
const (
	WorkPending     WorkState = "pending"
	WorkFetching    WorkState = "fetching"
	WorkNormalizing WorkState = "normalizing"
	WorkPersisted   WorkState = "persisted"
	WorkFailed      WorkState = "failed"
)

// WorkItem is one (store, category source) unit of crawl work.
type WorkItem struct {
	RunID    string
	Store    Store
	Category CategorySource
}

// RunStatus summarizes how a crawl run ended.
type RunStatus string

// Run statuses reported to the trigger caller.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// FailedItem names a work item that failed outright, for the run report.
type FailedItem struct {
	StoreID  int    `json:"store_id"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// RunSummary is the aggregate result of one crawl run.
type RunSummary struct {
	RunID          string                `json:"run_id"`
	Chain          Chain                 `json:"chain"`
	Status         RunStatus             `json:"status"`
	StoresCount    int                   `json:"stores_count"`
	ProductsUpsert int                   `json:"products_upserted"`
	ProductsModify int                   `json:"products_modified"`
	ProductsSkip   int                   `json:"products_skipped"`
	ByCategory     map[string]BulkResult `json:"by_category"`
	FailedItems    []FailedItem          `json:"failed_items,omitempty"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	ProcessingTime float64               `json:"processing_time"`
}

// RunRequest is the externally-visible crawl trigger.
type RunRequest struct {
	Chain       Chain `json:"chain"`
	Concurrency int   `json:"concurrency"`
	StoreFilter []int `json:"store_ids,omitempty"`
}
