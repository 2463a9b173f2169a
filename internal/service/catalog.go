package service

import (
	"context"
	"fmt"

	"ppob-service/internal/models"
	"ppob-service/internal/upstream"
	"ppob-service/internal/util"

	"go.uber.org/zap"
)

// CatalogSyncer mirrors the reseller price list into the local catalog.
type CatalogSyncer struct {
	catalog  CatalogStore
	upstream UpstreamClient
	logger   *zap.Logger
}

// NewCatalogSyncer creates a catalog syncer
func NewCatalogSyncer(catalog CatalogStore, upstreamClient UpstreamClient) *CatalogSyncer {
	return &CatalogSyncer{
		catalog:  catalog,
		upstream: upstreamClient,
		logger:   util.GetLogger(),
	}
}

// Sync fetches the upstream price list and replaces the catalog with it
// atomically. A sync failure leaves the previous catalog fully intact.
func (cs *CatalogSyncer) Sync(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "CatalogSyncer.Sync")
	defer span.End()

	raw, err := cs.upstream.FetchCatalog(ctx)
	if err != nil {
		util.CatalogSyncFailures.Inc()
		return 0, fmt.Errorf("failed to fetch upstream catalog: %w", err)
	}

	products := mapCatalog(raw)
	if len(products) == 0 {
		// An empty upstream answer is treated as an outage, not an empty
		// catalog. Replacing would wipe every product.
		util.CatalogSyncFailures.Inc()
		return 0, fmt.Errorf("upstream catalog is empty, keeping current products")
	}

	if err := cs.catalog.ReplaceAllProducts(ctx, products); err != nil {
		util.CatalogSyncFailures.Inc()
		return 0, fmt.Errorf("failed to replace catalog: %w", err)
	}

	util.CatalogSyncProducts.Set(float64(len(products)))
	cs.logger.Info("Catalog synced", zap.Int("products", len(products)))
	return len(products), nil
}

// EnsureSeed installs the built-in product set when the catalog is empty,
// so the storefront works before the first upstream sync completes.
func (cs *CatalogSyncer) EnsureSeed(ctx context.Context) error {
	count, err := cs.catalog.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := cs.catalog.ReplaceAllProducts(ctx, seedProducts()); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	cs.logger.Info("Catalog seeded", zap.Int("products", len(seedProducts())))
	return nil
}

// mapCatalog converts available upstream entries into catalog products,
// mapping category and brand into local slugs and attaching the admin fee.
func mapCatalog(raw []upstream.RawProduct) []models.Product {
	products := make([]models.Product, 0, len(raw))
	for _, rp := range raw {
		if rp.Status != "available" {
			continue
		}
		products = append(products, models.Product{
			ID:       rp.BuyerSKUCode,
			Category: upstream.MapCategory(rp.Category),
			Provider: upstream.MapBrand(rp.Brand),
			Name:     rp.ProductName,
			Price:    rp.Price,
			AdminFee: CalculateAdminFee(rp.Price),
			IsActive: true,
		})
	}
	return products
}

func seedProducts() []models.Product {
	return []models.Product{
		{ID: "tsel-5k", Category: models.CategoryPulsa, Provider: "telkomsel", Name: "Pulsa Telkomsel 5.000", Price: 5000, AdminFee: 750, IsActive: true},
		{ID: "tsel-10k", Category: models.CategoryPulsa, Provider: "telkomsel", Name: "Pulsa Telkomsel 10.000", Price: 10000, AdminFee: 1000, IsActive: true},
		{ID: "tsel-25k", Category: models.CategoryPulsa, Provider: "telkomsel", Name: "Pulsa Telkomsel 25.000", Price: 25000, AdminFee: 1250, IsActive: true},
		{ID: "tsel-50k", Category: models.CategoryPulsa, Provider: "telkomsel", Name: "Pulsa Telkomsel 50.000", Price: 50000, AdminFee: 1500, IsActive: true},
		{ID: "tsel-100k", Category: models.CategoryPulsa, Provider: "telkomsel", Name: "Pulsa Telkomsel 100.000", Price: 100000, AdminFee: 2000, IsActive: true},
		{ID: "isat-5k", Category: models.CategoryPulsa, Provider: "indosat", Name: "Pulsa Indosat 5.000", Price: 5000, AdminFee: 750, IsActive: true},
		{ID: "isat-10k", Category: models.CategoryPulsa, Provider: "indosat", Name: "Pulsa Indosat 10.000", Price: 10000, AdminFee: 1000, IsActive: true},
		{ID: "isat-25k", Category: models.CategoryPulsa, Provider: "indosat", Name: "Pulsa Indosat 25.000", Price: 25000, AdminFee: 1250, IsActive: true},
		{ID: "isat-50k", Category: models.CategoryPulsa, Provider: "indosat", Name: "Pulsa Indosat 50.000", Price: 50000, AdminFee: 1500, IsActive: true},
		{ID: "pln-20k", Category: models.CategoryTokenListrik, Provider: "pln", Name: "Token PLN 20.000", Price: 20000, AdminFee: 1500, IsActive: true},
		{ID: "pln-50k", Category: models.CategoryTokenListrik, Provider: "pln", Name: "Token PLN 50.000", Price: 50000, AdminFee: 1500, IsActive: true},
		{ID: "pln-100k", Category: models.CategoryTokenListrik, Provider: "pln", Name: "Token PLN 100.000", Price: 100000, AdminFee: 1500, IsActive: true},
		{ID: "pln-200k", Category: models.CategoryTokenListrik, Provider: "pln", Name: "Token PLN 200.000", Price: 200000, AdminFee: 2000, IsActive: true},
		{ID: "ml-86-dm", Category: models.CategoryGameVoucher, Provider: "mobile_legends", Name: "Mobile Legends 86 Diamond", Price: 20000, AdminFee: 1000, IsActive: true},
		{ID: "ml-172-dm", Category: models.CategoryGameVoucher, Provider: "mobile_legends", Name: "Mobile Legends 172 Diamond", Price: 40000, AdminFee: 1500, IsActive: true},
		{ID: "ff-70-dm", Category: models.CategoryGameVoucher, Provider: "free_fire", Name: "Free Fire 70 Diamond", Price: 10000, AdminFee: 1000, IsActive: true},
		{ID: "ff-140-dm", Category: models.CategoryGameVoucher, Provider: "free_fire", Name: "Free Fire 140 Diamond", Price: 20000, AdminFee: 1000, IsActive: true},
		{ID: "gopay-50k", Category: models.CategoryEwallet, Provider: "gopay", Name: "GoPay 50.000", Price: 50000, AdminFee: 2000, IsActive: true},
		{ID: "gopay-100k", Category: models.CategoryEwallet, Provider: "gopay", Name: "GoPay 100.000", Price: 100000, AdminFee: 2500, IsActive: true},
		{ID: "ovo-50k", Category: models.CategoryEwallet, Provider: "ovo", Name: "OVO 50.000", Price: 50000, AdminFee: 2000, IsActive: true},
		{ID: "dana-50k", Category: models.CategoryEwallet, Provider: "dana", Name: "DANA 50.000", Price: 50000, AdminFee: 2000, IsActive: true},
	}
}
