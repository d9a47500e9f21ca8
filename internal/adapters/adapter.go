// internal/adapters/adapter.go
package adapters

import "context"

// ResolveInput is the loosely-typed bag an ingestion job carries: at
// least one of URL or SKU is expected, plus an optional marketplace hint.
type ResolveInput struct {
	URL         string `json:"url,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
}

type ResolvedProductInfo struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type ResolvedOffer struct {
	Marketplace string  `json:"marketplace"`
	StoreName   string  `json:"storeName"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

type ResolvedProduct struct {
	Product ResolvedProductInfo `json:"product"`
	Offers  []ResolvedOffer     `json:"offers"`
}

// MarketplaceAdapter resolves raw product input into a product and its
// offers. CanHandle must be pure so that selection order over the
// registry stays deterministic.
type MarketplaceAdapter interface {
	Name() string
	CanHandle(input ResolveInput) bool
	ResolveProduct(ctx context.Context, input ResolveInput) (*ResolvedProduct, error)
}
