package service

import (
	"context"
	"testing"

	"ppob-service/internal/models"
	"ppob-service/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncReplacesCatalog(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{{ID: "old", Category: models.CategoryPulsa, IsActive: true}}}
	up := &fakeUpstream{catalog: []upstream.RawProduct{
		{BuyerSKUCode: "tsel10", ProductName: "Telkomsel 10.000", Category: "Pulsa", Brand: "TELKOMSEL", Price: 10000, Status: "available"},
		{BuyerSKUCode: "pln50", ProductName: "PLN 50.000", Category: "PLN", Brand: "PLN", Price: 50000, Status: "available"},
		{BuyerSKUCode: "down1", ProductName: "Cut Off", Category: "Pulsa", Brand: "XL AXIATA", Price: 5000, Status: "cutoff"},
	}}

	count, err := NewCatalogSyncer(catalog, up).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, catalog.products, 2)
	first := catalog.products[0]
	assert.Equal(t, "tsel10", first.ID)
	assert.Equal(t, models.CategoryPulsa, first.Category)
	assert.Equal(t, "telkomsel", first.Provider)
	assert.Equal(t, int64(750), first.AdminFee)
	assert.Equal(t, models.CategoryTokenListrik, catalog.products[1].Category)
}

func TestSyncKeepsCatalogOnEmptyUpstream(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{{ID: "old", Category: models.CategoryPulsa, IsActive: true}}}
	up := &fakeUpstream{}

	_, err := NewCatalogSyncer(catalog, up).Sync(context.Background())
	require.Error(t, err)
	assert.Len(t, catalog.products, 1, "an empty upstream answer must not wipe the catalog")
}

func TestEnsureSeedOnlyWhenEmpty(t *testing.T) {
	catalog := &fakeCatalog{}
	syncer := NewCatalogSyncer(catalog, &fakeUpstream{})

	require.NoError(t, syncer.EnsureSeed(context.Background()))
	seeded := len(catalog.products)
	assert.Greater(t, seeded, 0)

	// Second call must not touch the populated catalog.
	catalog.products = catalog.products[:1]
	require.NoError(t, syncer.EnsureSeed(context.Background()))
	assert.Len(t, catalog.products, 1)
}
