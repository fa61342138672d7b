package services

import "storefront/internal/domain"

type InventoryService struct {
	Catalog *CatalogService
}

func NewInventoryService(cat *CatalogService) *InventoryService {
	return &InventoryService{Catalog: cat}
}

// CheckAvailability maps a product's stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(productID string) (domain.StockStatus, error) {
	p, err := s.Catalog.Product(productID)
	if err != nil {
		return domain.StockStatus{}, err
	}
	return domain.CheckStockStatus(p), nil
}
