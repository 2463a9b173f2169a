package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ppob-service/internal/models"
	"ppob-service/internal/util"

	"go.uber.org/zap"
)

// parserSystemPrompt fixes the task taxonomy for the model: the four
// supported actions, the category and provider vocabulary, and the
// numeric shorthand rules. Out-of-domain commands must come back with
// confidence 0; well-formed ones with 0.8-1.0.
const parserSystemPrompt = `Anda adalah AI assistant khusus untuk platform PPOB (Payment Point Online Bank) Indonesia.

PERINTAH YANG DIDUKUNG:
1. CEK HARGA / LIST PRODUK: "Cek harga pulsa Telkomsel", "Harga token PLN", "List voucher Mobile Legends"
2. TRANSAKSI / PEMBELIAN: "Beli pulsa Telkomsel 50rb untuk 081234567890", "Token listrik PLN 100rb meter 12345678901"
3. CEK STATUS: "Status transaksi [ID]", "Cek pembayaran [ID]"

Jika pertanyaan BUKAN tentang PPOB, kembalikan confidence: 0.

Analisis perintah dan ekstrak:
- intent: "buy" (beli/transaksi), "check_price" (cek harga), "list_products" (list produk), "check_status" (cek status)
- productType: "pulsa", "token_listrik", "game_voucher", "ewallet", "tv_streaming"
- provider: nama provider (telkomsel, indosat, xl, tri, smartfren, axis, pln, mobile_legends, free_fire, gopay, ovo, dana, dll)
- amount: nominal dalam rupiah (konversi: "50rb" / "lima puluh ribu" = 50000)
- targetNumber: nomor HP/meter/ID tujuan (hanya untuk intent "buy")
- transactionId: ID transaksi (hanya untuk intent "check_status")
- confidence: 0.8-1.0 untuk perintah valid

Contoh:
"Cek harga pulsa Telkomsel" -> {"intent": "check_price", "productType": "pulsa", "provider": "telkomsel", "confidence": 0.95}
"Beli pulsa Telkomsel 50rb untuk 081234567890" -> {"intent": "buy", "productType": "pulsa", "provider": "telkomsel", "amount": 50000, "targetNumber": "081234567890", "confidence": 0.95}
"List produk game voucher" -> {"intent": "list_products", "productType": "game_voucher", "confidence": 0.9}

Respond hanya dengan JSON yang valid.`

// IntentParser turns free-text chat commands into ParsedIntents.
type IntentParser struct {
	client *GeminiClient
	model  string
	logger *zap.Logger
}

// NewIntentParser creates an intent parser backed by the given model
func NewIntentParser(client *GeminiClient, model string) *IntentParser {
	return &IntentParser{
		client: client,
		model:  model,
		logger: util.GetLogger(),
	}
}

// Parse extracts a structured intent from a raw command. Threshold policy
// is the caller's concern; this only normalizes what the model returned.
func (p *IntentParser) Parse(ctx context.Context, command string) (*models.ParsedIntent, error) {
	ctx, span := util.StartSpan(ctx, "ai.Parse")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IntentParseLatency.Observe(time.Since(start).Seconds())
	}()

	raw, err := p.client.Generate(ctx, p.model, parserSystemPrompt, command, true)
	if err != nil {
		p.logger.Warn("Intent parsing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var intent models.ParsedIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		p.logger.Warn("Model returned unparseable intent", zap.String("raw", raw), zap.Error(err))
		return nil, fmt.Errorf("%w: invalid model output", ErrParse)
	}

	normalizeIntent(&intent)
	return &intent, nil
}

// normalizeIntent cleans up model output before it reaches the resolver:
// slugs lowercased, confidence clamped to [0,1], unknown actions mapped
// to an empty action so the resolver rejects them.
func normalizeIntent(intent *models.ParsedIntent) {
	intent.Action = strings.ToLower(strings.TrimSpace(intent.Action))
	intent.Category = strings.ToLower(strings.TrimSpace(intent.Category))
	intent.Provider = strings.ToLower(strings.TrimSpace(intent.Provider))
	intent.TargetNumber = strings.TrimSpace(intent.TargetNumber)
	intent.TransactionID = strings.TrimSpace(intent.TransactionID)

	switch intent.Action {
	case models.ActionBuy, models.ActionCheckPrice, models.ActionListProducts, models.ActionCheckStatus:
	default:
		intent.Action = ""
	}

	if intent.Confidence < 0 {
		intent.Confidence = 0
	}
	if intent.Confidence > 1 {
		intent.Confidence = 1
	}
}
