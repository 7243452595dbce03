// Package catalog defines the core types and interfaces for the grocery
// catalog crawl pipeline: stores, raw and canonical products, work items,
// and the contracts implemented by fetchers, translators, and stores.
package catalog
