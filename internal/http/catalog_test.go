package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

func TestListing_RedirectsToCanonicalQuery(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/products?sort=price-asc&category=Women&page=9&minPrice=1")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/products?category=Women&sort=price-asc", resp.Header.Get("Location"))

	resp = c.get("/products?category=Women&sort=price-asc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "7 products")
	assert.Contains(t, body, "Ribbed Tank")
	assert.Less(t, strings.Index(body, "Ribbed Tank"), strings.Index(body, "Trench Coat"))
}

func TestListing_EmptyResultOffersClear(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/products?category=Nothing")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "No products match")
	assert.Contains(t, body, "Page 1 of 1")
}

func TestAPIList_ReportsCanonicalQueryAndLinks(t *testing.T) {
	app, _ := newApp(t, map[string]string{"PAGE_SIZE": "5"})
	c := newClient(t, app)

	resp := c.get("/api/v1/products?category=Women&page=2&sort=price-asc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode(t, resp)
	assert.EqualValues(t, 7, m["totalCount"])
	assert.EqualValues(t, 2, m["totalPages"])
	assert.Equal(t, "category=Women&page=2&sort=price-asc", m["query"])

	items := m["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "cashmere-cardigan", first["id"])
	assert.True(t, decimal.RequireFromString("189").Equal(decimal.RequireFromString(first["price"].(string))))
	assert.Equal(t, "IN_STOCK", first["stockStatus"].(map[string]any)["status"])

	links := m["links"].(map[string]any)
	assert.Equal(t, "/products?category=Women&sort=price-asc", links["prev"])
	assert.Nil(t, links["next"])
	assert.Equal(t, "/products?sort=price-asc", links["clear"], "clearing keeps the sort order")
}

func TestAPIList_FacetLinksToggle(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	m := decode(t, c.get("/api/v1/products?category=Women"))
	var category map[string]any
	for _, g := range m["facets"].([]any) {
		if g.(map[string]any)["name"] == "category" {
			category = g.(map[string]any)
		}
	}
	require.NotNil(t, category)
	for _, l := range category["links"].([]any) {
		link := l.(map[string]any)
		if link["value"] == "Women" {
			assert.Equal(t, true, link["active"])
			assert.Equal(t, "/products", link["href"], "active category link clears it")
		}
		if link["value"] == "Men" {
			assert.Equal(t, "/products?category=Men", link["href"])
		}
	}
}

func TestFacetOptions(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	m := decode(t, c.get("/api/v1/facets"))
	assert.Contains(t, m["categories"], "Women")
	assert.Contains(t, m["categories"], "Accessories")
}

func TestProduct_NotFoundCarriesLink(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/api/v1/products/no-such-thing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	m := decode(t, resp)
	assert.Equal(t, "/products", m["link"])

	resp = c.get("/product/no-such-thing")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "no longer available")
	assert.Contains(t, body, `href="/products"`)

	resp = c.get("/api/v1/nowhere")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/products", decode(t, resp)["link"])
}

func TestProduct_DetailShowsStockAndVariants(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/product/chelsea-boot")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Only 2 left")
	assert.Contains(t, body, "<option>44</option>")

	body = readBody(t, c.get("/product/wool-overcoat"))
	assert.Contains(t, body, "Out of stock")
	assert.NotContains(t, body, "Add to cart")
}

func TestProduct_TemplatesEscapeCatalogText(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")
	db, err := repos.OpenDB(dsn)
	require.NoError(t, err)
	require.NoError(t, repos.NewProductRepo(db).ReplaceAll([]domain.Product{{
		ID:          "xss-1",
		Title:       "<script>alert(1)</script>",
		Description: "<b>desc</b>",
		Price:       decimal.RequireFromString("9.99"),
		Category:    "Test",
	}}))
	require.NoError(t, db.Close())

	app, _ := newApp(t, map[string]string{"DB_DSN": dsn})
	c := newClient(t, app)

	body := readBody(t, c.get("/product/xss-1"))
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestSearch_RejectsBadText(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	entries := captureLogs(t, func() {
		resp := c.get("/api/v1/search?q=%3Cscript%3E")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	assert.True(t, hasAction(entries, "validation.fail"))

	resp := c.get("/products?q=%3Cscript%3E")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch_MatchesText(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/api/v1/search?q=wool")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode(t, resp)
	assert.Equal(t, "q=wool", m["query"])
	ids := []string{}
	for _, it := range m["items"].([]any) {
		ids = append(ids, it.(map[string]any)["id"].(string))
	}
	assert.Contains(t, ids, "wool-overcoat")
	assert.Contains(t, ids, "wool-beanie")
}

func TestSearch_OlderRequestIsSuperseded(t *testing.T) {
	app, _ := newApp(t, map[string]string{"SEARCH_DEBOUNCE": "200ms"})
	c := newClient(t, app)

	var wg sync.WaitGroup
	var first *http.Response
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = c.get("/api/v1/search?q=sh")
	}()
	time.Sleep(50 * time.Millisecond)
	second := c.get("/api/v1/search?q=shirt")
	wg.Wait()

	assert.Equal(t, http.StatusNoContent, first.StatusCode)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "q=shirt", decode(t, second)["query"])
}

func TestAvailability(t *testing.T) {
	app, _ := newApp(t, nil)
	c := newClient(t, app)

	resp := c.get("/api/v1/availability?productId=chino-slim")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode(t, resp)
	assert.Equal(t, "LOW_STOCK", m["status"])
	assert.EqualValues(t, 3, m["qty"])

	resp = c.get("/api/v1/availability?productId=nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.get("/api/v1/availability?productId=%3Cx%3E")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAvailability_RateLimited(t *testing.T) {
	app, _ := newApp(t, nil)

	entries := captureLogs(t, func() {
		for i := 0; i < 16; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/availability?productId=gift-card", nil))
			require.NoError(t, err)
			if i < 15 {
				require.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode, "limited too early at %d", i)
			} else {
				assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
			}
		}
	})
	assert.True(t, hasAction(entries, "rate.availability.hit"))
}
