package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ppob-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, ":generateContent")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": reply}},
				}},
			},
		})
	}))
}

func TestParseBuyCommand(t *testing.T) {
	srv := modelServer(t, `{"intent": "buy", "productType": "pulsa", "provider": "telkomsel", "amount": 50000, "targetNumber": "081234567890", "confidence": 0.95}`)
	defer srv.Close()

	parser := NewIntentParser(NewGeminiClient(srv.URL, "key"), "gemini-2.5-pro")
	intent, err := parser.Parse(context.Background(), "Beli pulsa Telkomsel 50rb untuk 081234567890")
	require.NoError(t, err)

	assert.Equal(t, models.ActionBuy, intent.Action)
	assert.Equal(t, models.CategoryPulsa, intent.Category)
	assert.Equal(t, "telkomsel", intent.Provider)
	assert.Equal(t, int64(50000), intent.Amount)
	assert.Equal(t, "081234567890", intent.TargetNumber)
	assert.InDelta(t, 0.95, intent.Confidence, 0.001)
}

func TestParseInvalidModelOutput(t *testing.T) {
	srv := modelServer(t, "not json at all")
	defer srv.Close()

	parser := NewIntentParser(NewGeminiClient(srv.URL, "key"), "gemini-2.5-pro")
	_, err := parser.Parse(context.Background(), "Beli pulsa")
	assert.ErrorIs(t, err, ErrParse)
}

func TestNormalizeIntent(t *testing.T) {
	intent := &models.ParsedIntent{
		Action:     " BUY ",
		Category:   "Pulsa",
		Provider:   " Telkomsel ",
		Confidence: 1.4,
	}
	normalizeIntent(intent)

	assert.Equal(t, models.ActionBuy, intent.Action)
	assert.Equal(t, "pulsa", intent.Category)
	assert.Equal(t, "telkomsel", intent.Provider)
	assert.Equal(t, 1.0, intent.Confidence)
}

func TestNormalizeIntentUnknownAction(t *testing.T) {
	intent := &models.ParsedIntent{Action: "order", Confidence: -0.2}
	normalizeIntent(intent)

	assert.Equal(t, "", intent.Action)
	assert.Equal(t, 0.0, intent.Confidence)
}
