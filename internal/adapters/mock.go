// internal/adapters/mock.go
package adapters

import (
	"context"
	"strings"
)

type mockFixture struct {
	keyword string
	product ResolvedProduct
}

// MockAdapter resolves every input from a fixed fixture set, keyed by
// substring match against the URL and SKU. Fixtures are checked in a
// fixed order and unmatched inputs fall back to the default fixture, so
// resolution is deterministic for any input.
type MockAdapter struct {
	fixtures []mockFixture
	fallback ResolvedProduct
}

func NewMockAdapter() *MockAdapter {
	iphone := ResolvedProduct{
		Product: ResolvedProductInfo{
			Title:    "Apple iPhone 15 128GB",
			ImageURL: "https://static.example.com/fixtures/iphone15.jpg",
		},
		Offers: []ResolvedOffer{
			{Marketplace: "lazada", StoreName: "Lazada Official Store", Price: 28900, Currency: "THB"},
			{Marketplace: "shopee", StoreName: "Shopee Mall", Price: 29200, Currency: "THB"},
		},
	}

	airpods := ResolvedProduct{
		Product: ResolvedProductInfo{
			Title:    "Apple AirPods Pro (2nd generation)",
			ImageURL: "https://static.example.com/fixtures/airpods-pro.jpg",
		},
		Offers: []ResolvedOffer{
			{Marketplace: "shopee", StoreName: "Shopee Mall", Price: 7990, Currency: "THB"},
			{Marketplace: "lazada", StoreName: "Lazada Official Store", Price: 8290, Currency: "THB"},
		},
	}

	return &MockAdapter{
		fixtures: []mockFixture{
			{keyword: "iphone", product: iphone},
			{keyword: "airpods", product: airpods},
		},
		fallback: iphone,
	}
}

func (a *MockAdapter) Name() string {
	return "mock"
}

func (a *MockAdapter) CanHandle(input ResolveInput) bool {
	return true
}

func (a *MockAdapter) ResolveProduct(ctx context.Context, input ResolveInput) (*ResolvedProduct, error) {
	needle := strings.ToLower(input.URL + " " + input.SKU)
	for _, fixture := range a.fixtures {
		if strings.Contains(needle, fixture.keyword) {
			resolved := fixture.product
			return &resolved, nil
		}
	}

	resolved := a.fallback
	return &resolved, nil
}
