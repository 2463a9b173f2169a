package upstream

import (
	"testing"

	"ppob-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMapCategory(t *testing.T) {
	assert.Equal(t, models.CategoryPulsa, MapCategory("Pulsa"))
	assert.Equal(t, models.CategoryPulsa, MapCategory("Paket Data"))
	assert.Equal(t, models.CategoryTokenListrik, MapCategory("PLN"))
	assert.Equal(t, models.CategoryGameVoucher, MapCategory("Voucher Game"))
	assert.Equal(t, models.CategoryEwallet, MapCategory("E-Money"))
	assert.Equal(t, models.CategoryTVStreaming, MapCategory("TV"))
}

func TestMapCategoryPassthrough(t *testing.T) {
	assert.Equal(t, "streaming_premium", MapCategory("Streaming Premium"))
}

func TestMapBrand(t *testing.T) {
	assert.Equal(t, "telkomsel", MapBrand("TELKOMSEL"))
	assert.Equal(t, "telkomsel", MapBrand("Telkomsel"))
	assert.Equal(t, "xl", MapBrand("XL AXIATA"))
	assert.Equal(t, "mobile_legends", MapBrand("MOBILE LEGENDS"))
}

func TestMapBrandPassthrough(t *testing.T) {
	assert.Equal(t, "genshin_impact", MapBrand("Genshin Impact"))
}
