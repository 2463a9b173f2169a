package ai

import (
	"context"
	"fmt"
	"strings"

	"ppob-service/internal/util"

	"go.uber.org/zap"
)

// MessageComposer produces the Indonesian chat replies. Implementations
// are best-effort: they must always return a usable message.
type MessageComposer interface {
	OrderConfirmation(ctx context.Context, productName, targetNumber string, amount, adminFee int64) string
	ErrorAdvice(ctx context.Context, problem string) string
}

// GeminiComposer asks the model for a phrased reply and falls back to the
// deterministic templates when the call fails.
type GeminiComposer struct {
	client *GeminiClient
	model  string
	logger *zap.Logger
}

// NewGeminiComposer creates a model-backed composer
func NewGeminiComposer(client *GeminiClient, model string) *GeminiComposer {
	return &GeminiComposer{
		client: client,
		model:  model,
		logger: util.GetLogger(),
	}
}

func (c *GeminiComposer) OrderConfirmation(ctx context.Context, productName, targetNumber string, amount, adminFee int64) string {
	prompt := fmt.Sprintf(`Buatkan konfirmasi pembelian yang singkat dan profesional dalam bahasa Indonesia untuk:

Produk: %s
Nomor tujuan: %s
Harga: Rp %s
Biaya admin: Rp %s
Total: Rp %s

Respons maksimal 3-4 baris, tanpa emoji. Minta konfirmasi untuk melanjutkan pembayaran.`,
		productName, targetNumber,
		FormatRupiah(amount), FormatRupiah(adminFee), FormatRupiah(amount+adminFee))

	text, err := c.client.Generate(ctx, c.model, "", prompt, false)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Debug("Composer falling back to template", zap.Error(err))
		return TemplateComposer{}.OrderConfirmation(ctx, productName, targetNumber, amount, adminFee)
	}
	return text
}

func (c *GeminiComposer) ErrorAdvice(ctx context.Context, problem string) string {
	prompt := fmt.Sprintf(`Buatkan pesan error yang ramah dalam bahasa Indonesia untuk masalah berikut: %s
Berikan saran atau alternatif jika memungkinkan. Gunakan bahasa yang sopan.`, problem)

	text, err := c.client.Generate(ctx, c.model, "", prompt, false)
	if err != nil || strings.TrimSpace(text) == "" {
		c.logger.Debug("Composer falling back to template", zap.Error(err))
		return TemplateComposer{}.ErrorAdvice(ctx, problem)
	}
	return text
}

// TemplateComposer is the deterministic fallback. It is also the
// implementation used in tests.
type TemplateComposer struct{}

func (TemplateComposer) OrderConfirmation(_ context.Context, productName, targetNumber string, amount, adminFee int64) string {
	return fmt.Sprintf(
		"Baik! Saya akan memproses pembelian %s untuk %s. Harga Rp %s + admin Rp %s = total Rp %s. Lanjutkan ke pembayaran?",
		productName, targetNumber,
		FormatRupiah(amount), FormatRupiah(adminFee), FormatRupiah(amount+adminFee))
}

func (TemplateComposer) ErrorAdvice(_ context.Context, problem string) string {
	return fmt.Sprintf("Maaf, terjadi masalah: %s. Silakan coba lagi atau hubungi customer service.", problem)
}

// FormatRupiah renders an integer amount with Indonesian thousands
// separators: 51500 -> "51.500".
func FormatRupiah(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
