package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestCreatePayment(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"unique_code":     "TXN-1",
				"status":          "Pending",
				"expired":         "2026-01-01 12:00:00",
				"checkout_url_v3": "https://paydisini.co.id/checkout/TXN-1",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "apikey")
	session, err := client.CreatePayment(context.Background(), "TXN-1", 51500, "Pulsa Telkomsel 50.000 - 081234567890", "11", 10800)
	require.NoError(t, err)

	assert.Equal(t, "TXN-1", session.GatewayRef)
	assert.Equal(t, "https://paydisini.co.id/checkout/TXN-1", session.CheckoutURL)

	assert.Equal(t, "new", got.Get("request"))
	assert.Equal(t, "apikey", got.Get("key"))
	assert.Equal(t, "51500", got.Get("amount"))
	assert.Equal(t, "11", got.Get("service"))
	assert.Equal(t, "10800", got.Get("valid_time"))
	assert.Equal(t, "1", got.Get("type_fee"))
	assert.Equal(t, md5hex("apikey"+"TXN-1"+"11"+"51500"+"10800"+"NewTransaction"), got.Get("signature"))
}

func TestCreatePaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"msg":     "invalid signature",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "apikey")
	_, err := client.CreatePayment(context.Background(), "TXN-1", 51500, "note", "11", 10800)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestCheckPaymentStatus(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"unique_code": "TXN-1",
				"status":      "Success",
				"amount":      51500,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "apikey")
	status, err := client.CheckPaymentStatus(context.Background(), "TXN-1")
	require.NoError(t, err)

	assert.Equal(t, WebhookStatusSuccess, status.Status)
	assert.Equal(t, int64(51500), status.Amount)
	assert.Equal(t, "status", got.Get("request"))
	assert.Equal(t, md5hex("apikey"+"TXN-1"+"StatusTransaction"), got.Get("signature"))
}
