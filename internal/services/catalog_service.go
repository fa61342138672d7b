package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductSource interface {
	All() ([]domain.Product, error)
}

// CatalogService holds the catalog loaded once at startup and answers facet
// queries against it. The product slice is shared and never modified.
type CatalogService struct {
	products []domain.Product
	byID     map[string]int
	options  catalog.Options
	codec    catalog.Codec
	pageSize int
	searcher *catalog.Searcher
}

func NewCatalogService(src ProductSource, codec catalog.Codec, pageSize int, debounce time.Duration) (*CatalogService, error) {
	ps, err := src.All()
	if err != nil {
		return nil, err
	}
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}
	s := &CatalogService{
		products: ps,
		byID:     make(map[string]int, len(ps)),
		options:  catalog.BuildOptions(ps),
		codec:    codec.Fit(ps),
		pageSize: pageSize,
	}
	for i, p := range ps {
		s.byID[p.ID] = i
	}
	s.searcher = catalog.NewSearcher(debounce, func(_ context.Context, f catalog.FacetState) (catalog.Result, error) {
		return s.Query(f), nil
	})
	return s, nil
}

func (s *CatalogService) Codec() catalog.Codec { return s.codec }

func (s *CatalogService) PageSize() int { return s.pageSize }

func (s *CatalogService) Options() catalog.Options { return s.options }

func (s *CatalogService) Len() int { return len(s.products) }

func (s *CatalogService) Product(id string) (domain.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return s.products[i], nil
}

// Manager builds the facet state manager for a request's query values.
func (s *CatalogService) Manager(values url.Values) *catalog.Manager {
	return catalog.NewManager(s.codec, values, s.pageSize, func(f catalog.FacetState) int {
		return catalog.Count(s.products, f)
	})
}

func (s *CatalogService) Query(f catalog.FacetState) catalog.Result {
	return catalog.Query(s.products, f, s.pageSize)
}

// Search runs a debounced query for client. catalog.ErrSuperseded means a
// newer search from the same client replaced this one.
func (s *CatalogService) Search(ctx context.Context, client string, f catalog.FacetState) (catalog.Result, error) {
	return s.searcher.Search(ctx, client, f)
}
