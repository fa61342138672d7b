package handlers

import (
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Wish    *services.WishlistService
}

var errBadQuery = errors.New("invalid search text")

// listingValues reads the raw query string and checks the free-text facet.
func listingValues(c *fiber.Ctx) (url.Values, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}, nil
	}
	if raw := values.Get(catalog.ParamQuery); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return nil, errBadQuery
		}
		values.Set(catalog.ParamQuery, q)
	}
	return values, nil
}

func withQuery(path string, v url.Values) string {
	if enc := v.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

type facetLink struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

type facetGroup struct {
	Name  string      `json:"name"`
	Links []facetLink `json:"links"`
}

// facetLinks renders every filter option as the URL it would lead to.
func facetLinks(m *catalog.Manager, opts catalog.Options, path string) []facetGroup {
	st := m.State()
	single := func(name string, values []string, current string, set func(string) catalog.Update) facetGroup {
		g := facetGroup{Name: name}
		for _, v := range values {
			active := strings.EqualFold(v, current)
			next := v
			if active {
				next = ""
			}
			g.Links = append(g.Links, facetLink{Label: v, Value: v, Href: withQuery(path, m.Preview(set(next))), Active: active})
		}
		return g
	}
	multi := func(name string, values, selected []string, toggle func(string) catalog.Update) facetGroup {
		g := facetGroup{Name: name}
		for _, v := range values {
			active := slices.ContainsFunc(selected, func(s string) bool { return strings.EqualFold(s, v) })
			g.Links = append(g.Links, facetLink{Label: v, Value: v, Href: withQuery(path, m.Preview(toggle(v))), Active: active})
		}
		return g
	}
	sorts := facetGroup{Name: catalog.ParamSort}
	for _, k := range catalog.SortKeys {
		sorts.Links = append(sorts.Links, facetLink{
			Label: string(k), Value: string(k),
			Href:   withQuery(path, m.Preview(catalog.SetSort(k))),
			Active: st.Sort == k,
		})
	}
	return []facetGroup{
		single(catalog.ParamCategory, opts.Categories, st.Category, catalog.SetCategory),
		single(catalog.ParamSubCategory, opts.SubCategories, st.SubCategory, catalog.SetSubCategory),
		single(catalog.ParamTag, opts.Tags, st.Tag, catalog.SetTag),
		multi(catalog.ParamBrand, opts.Brands, st.Brands, catalog.ToggleBrand),
		multi(catalog.ParamSize, opts.Sizes, st.Sizes, catalog.ToggleSize),
		multi(catalog.ParamColor, opts.Colors, st.Colors, catalog.ToggleColor),
		multi(catalog.ParamCollection, opts.Tags, st.Collections, catalog.ToggleCollection),
		sorts,
	}
}

type pageLinks struct {
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Clear string `json:"clear"`
}

func pagination(m *catalog.Manager, res catalog.Result, path string) pageLinks {
	l := pageLinks{Clear: withQuery(path, m.Preview(catalog.ClearFilters(m.Codec())))}
	if res.Page > 1 {
		l.Prev = withQuery(path, m.Preview(catalog.SetPage(res.Page-1)))
	}
	if res.Page < res.TotalPages {
		l.Next = withQuery(path, m.Preview(catalog.SetPage(res.Page+1)))
	}
	return l
}

type productCard struct {
	domain.Product
	Stock domain.StockStatus `json:"stockStatus"`
}

func cards(ps []domain.Product) []productCard {
	out := make([]productCard, len(ps))
	for i, p := range ps {
		out[i] = productCard{Product: p, Stock: domain.CheckStockStatus(p)}
	}
	return out
}

// List renders the faceted catalog page. Requests whose query is not in
// canonical form are redirected to it.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	values, err := listingValues(c)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return render(c, "notfound", fiber.Map{"Message": "Enter a valid search (letters and numbers only)", "Link": catalogLink})
	}
	m := h.Catalog.Manager(values)
	canon := m.Values()
	if canon.Encode() != values.Encode() {
		return c.Redirect(withQuery(catalogLink, canon), fiber.StatusFound)
	}

	st := m.State()
	res := h.Catalog.Query(st)
	return render(c, "products", fiber.Map{
		"State":    st,
		"Result":   res,
		"Products": cards(res.Items),
		"Facets":   facetLinks(m, h.Catalog.Options(), catalogLink),
		"Pages":    pagination(m, res, catalogLink),
	})
}

// APIList is the JSON form of List. Instead of redirecting it reports the
// canonical query string.
func (h *ProductHandler) APIList(c *fiber.Ctx) error {
	values, err := listingValues(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	m := h.Catalog.Manager(values)
	res := h.Catalog.Query(m.State())
	return c.JSON(fiber.Map{
		"items":      cards(res.Items),
		"totalCount": res.TotalCount,
		"totalPages": res.TotalPages,
		"page":       res.Page,
		"pageSize":   res.PageSize,
		"query":      m.Values().Encode(),
		"links":      pagination(m, res, catalogLink),
		"facets":     facetLinks(m, h.Catalog.Options(), catalogLink),
	})
}

func (h *ProductHandler) Facets(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.Options())
}

func (h *ProductHandler) lookup(c *fiber.Ctx) (domain.Product, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return domain.Product{}, false
	}
	p, err := h.Catalog.Product(id)
	if err != nil {
		return domain.Product{}, false
	}
	return p, true
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	p, ok := h.lookup(c)
	if !ok {
		return notFoundPage(c, "This item is no longer available")
	}
	saved := false
	if ids, err := h.Wish.IDs(c.UserContext(), sessionID(c)); err == nil {
		saved = slices.Contains(ids, p.ID)
	}
	return render(c, "product", fiber.Map{"P": p, "Stock": domain.CheckStockStatus(p), "Saved": saved})
}

func (h *ProductHandler) APIGet(c *fiber.Ctx) error {
	p, ok := h.lookup(c)
	if !ok {
		return notFound(c, "product not found")
	}
	saved := false
	if ids, err := h.Wish.IDs(c.UserContext(), sessionID(c)); err == nil {
		saved = slices.Contains(ids, p.ID)
	}
	return c.JSON(fiber.Map{"product": p, "stockStatus": domain.CheckStockStatus(p), "saved": saved})
}
