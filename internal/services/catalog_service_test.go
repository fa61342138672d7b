package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/services"
)

type staticProducts []domain.Product

func (s staticProducts) All() ([]domain.Product, error) { return s, nil }

func TestCatalogService_UnfilteredListingKeepsOutlierPrices(t *testing.T) {
	src := staticProducts{
		{ID: "sticker", Price: decimal.RequireFromString("0.50")},
		{ID: "scarf", Price: decimal.NewFromInt(40)},
		{ID: "parka", Price: decimal.RequireFromString("1499.99")},
	}
	cat, err := services.NewCatalogService(src, catalog.DefaultCodec, 12, 0)
	require.NoError(t, err)

	assert.Equal(t, catalog.Codec{MinPrice: 0, MaxPrice: 1500}, cat.Codec())
	m := cat.Manager(nil)
	res := cat.Query(m.State())
	assert.Equal(t, 3, res.TotalCount)
	assert.Empty(t, m.Values(), "default bounds stay out of the URL")
}
