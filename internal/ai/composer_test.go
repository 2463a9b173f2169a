package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		750:     "750",
		1500:    "1.500",
		51500:   "51.500",
		100000:  "100.000",
		1250000: "1.250.000",
		-51500:  "-51.500",
	}
	for amount, want := range cases {
		assert.Equal(t, want, FormatRupiah(amount))
	}
}

func TestTemplateOrderConfirmation(t *testing.T) {
	msg := TemplateComposer{}.OrderConfirmation(context.Background(), "Pulsa Telkomsel 50.000", "081234567890", 50000, 1500)

	assert.Contains(t, msg, "Pulsa Telkomsel 50.000")
	assert.Contains(t, msg, "081234567890")
	assert.Contains(t, msg, "50.000")
	assert.Contains(t, msg, "1.500")
	assert.Contains(t, msg, "51.500")
}

func TestGeminiComposerFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	composer := NewGeminiComposer(NewGeminiClient(srv.URL, "key"), "gemini-2.5-flash")
	msg := composer.OrderConfirmation(context.Background(), "Pulsa Telkomsel 50.000", "081234567890", 50000, 1500)

	assert.Equal(t, TemplateComposer{}.OrderConfirmation(context.Background(), "Pulsa Telkomsel 50.000", "081234567890", 50000, 1500), msg)
}

func TestTemplateErrorAdvice(t *testing.T) {
	msg := TemplateComposer{}.ErrorAdvice(context.Background(), "Produk tidak ditemukan")

	assert.Contains(t, msg, "Produk tidak ditemukan")
	assert.Contains(t, msg, "coba lagi")
}
