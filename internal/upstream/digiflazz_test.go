package upstream

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ppob-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() []RawProduct {
	return []RawProduct{
		{BuyerSKUCode: "tsel10", ProductName: "Telkomsel 10.000", Category: "Pulsa", Brand: "TELKOMSEL", Price: 10000, Status: "available"},
		{BuyerSKUCode: "tsel25", ProductName: "Telkomsel 25.000", Category: "Pulsa", Brand: "TELKOMSEL", Price: 25000, Status: "available"},
		{BuyerSKUCode: "tsel50", ProductName: "Telkomsel 50.000", Category: "Pulsa", Brand: "TELKOMSEL", Price: 50000, Status: "available"},
		{BuyerSKUCode: "tseldown", ProductName: "Telkomsel 5.000", Category: "Pulsa", Brand: "TELKOMSEL", Price: 5000, Status: "cutoff"},
		{BuyerSKUCode: "pln50", ProductName: "PLN 50.000", Category: "PLN", Brand: "PLN", Price: 50000, Status: "available"},
	}
}

func TestMatchSKUExactPrice(t *testing.T) {
	match, err := matchSKU(sampleCatalog(), models.CategoryPulsa, "telkomsel", 25000)
	require.NoError(t, err)
	assert.Equal(t, "tsel25", match.BuyerSKUCode)
}

func TestMatchSKUClosestPrice(t *testing.T) {
	match, err := matchSKU(sampleCatalog(), models.CategoryPulsa, "telkomsel", 30000)
	require.NoError(t, err)
	assert.Equal(t, "tsel25", match.BuyerSKUCode)
}

func TestMatchSKUTieGoesToFirst(t *testing.T) {
	catalog := []RawProduct{
		{BuyerSKUCode: "a20", Category: "Pulsa", Brand: "TELKOMSEL", Price: 20000, Status: "available"},
		{BuyerSKUCode: "b40", Category: "Pulsa", Brand: "TELKOMSEL", Price: 40000, Status: "available"},
	}

	// 30000 is equidistant from both entries.
	match, err := matchSKU(catalog, models.CategoryPulsa, "telkomsel", 30000)
	require.NoError(t, err)
	assert.Equal(t, "a20", match.BuyerSKUCode)
}

func TestMatchSKUSkipsUnavailable(t *testing.T) {
	match, err := matchSKU(sampleCatalog(), models.CategoryPulsa, "telkomsel", 5000)
	require.NoError(t, err)
	assert.NotEqual(t, "tseldown", match.BuyerSKUCode)
}

func TestMatchSKUNoCandidates(t *testing.T) {
	_, err := matchSKU(sampleCatalog(), models.CategoryEwallet, "gopay", 50000)
	assert.ErrorIs(t, err, ErrSKUNotFound)
}

func TestFetchCatalogSignsRequest(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/price-list", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": sampleCatalog(),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "reseller", "secret")
	catalog, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, 5)

	assert.Equal(t, "prepaid", got["cmd"])
	assert.Equal(t, "reseller", got["username"])
	sum := md5.Sum([]byte("reseller" + "secret" + "pricelist"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got["sign"])
}

func TestSubmitTopup(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": TopupResult{RefID: "TXN-1", Status: TopupStatusSuccess, SerialNumber: "SN-9"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "reseller", "secret")
	result, err := client.SubmitTopup(context.Background(), "tsel50", "081234567890", "TXN-1")
	require.NoError(t, err)
	assert.Equal(t, TopupStatusSuccess, result.Status)
	assert.Equal(t, "SN-9", result.SerialNumber)

	assert.Equal(t, "tsel50", got["buyer_sku_code"])
	assert.Equal(t, "081234567890", got["customer_no"])
	assert.Equal(t, "TXN-1", got["ref_id"])
	sum := md5.Sum([]byte("reseller" + "secret" + "TXN-1"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got["sign"])
}

func TestSubmitTopupRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": TopupResult{RefID: "TXN-2", Status: TopupStatusFailed, Message: "saldo tidak cukup"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "reseller", "secret")
	result, err := client.SubmitTopup(context.Background(), "tsel50", "081234567890", "TXN-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saldo tidak cukup")
	require.NotNil(t, result)
	assert.Equal(t, TopupStatusFailed, result.Status)
}
