package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ppob-service/internal/ai"
	"ppob-service/internal/models"
	"ppob-service/internal/upstream"
	"ppob-service/internal/util"

	"go.uber.org/zap"
)

// Chat rejection messages. Every failure on the chat surface is a
// conversational Indonesian message, never a raw error.
const (
	msgOutsideDomain = "Maaf, saya hanya dapat membantu dengan layanan PPOB:\n\n" +
		"Cek Harga: \"Cek harga pulsa Telkomsel\"\n" +
		"Transaksi: \"Beli pulsa Telkomsel 50rb untuk 081234567890\"\n" +
		"List Produk: \"List voucher Mobile Legends\"\n" +
		"Status: \"Status transaksi [ID]\""

	msgAmbiguous = "Perintah kurang jelas. Gunakan format yang lebih spesifik:\n\n" +
		"Cek Harga: Cek harga [kategori] [provider]\n" +
		"Beli: Beli [produk] [nominal] untuk [nomor]\n" +
		"List: List produk [kategori]\n" +
		"Status: Status transaksi [ID]"

	msgMissingTarget = "Nomor tujuan diperlukan untuk transaksi. Contoh: \"Beli pulsa Telkomsel 50rb untuk 081234567890\""

	msgUnrecognized = "Perintah tidak dikenali. Gunakan: cek harga, list produk, beli, atau status transaksi."
)

// ChatResult is the outcome of processing one chat command. ProductData
// is set only when a buy intent resolved to a priced product.
type ChatResult struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	ProductData *models.PricedOrder `json:"productData,omitempty"`
}

// Resolver is the order resolution engine. It turns parsed intents into
// priced products (local catalog first, live upstream as fallback) and
// answers the informational chat actions.
type Resolver struct {
	catalog      CatalogStore
	transactions TransactionStore
	upstream     UpstreamClient
	composer     ai.MessageComposer
	threshold    float64
	logger       *zap.Logger
}

// NewResolver creates a resolver with the given confidence threshold
func NewResolver(
	catalog CatalogStore,
	transactions TransactionStore,
	upstreamClient UpstreamClient,
	composer ai.MessageComposer,
	threshold float64,
) *Resolver {
	return &Resolver{
		catalog:      catalog,
		transactions: transactions,
		upstream:     upstreamClient,
		composer:     composer,
		threshold:    threshold,
		logger:       util.GetLogger(),
	}
}

// Resolve gates the intent by confidence and dispatches on its action.
// Confidence exactly 0 means the command is outside the domain and must
// never reach product resolution.
func (r *Resolver) Resolve(ctx context.Context, intent *models.ParsedIntent) *ChatResult {
	ctx, span := util.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	if intent.Confidence == 0 {
		util.IntentsRejectedTotal.WithLabelValues("outside_domain").Inc()
		return &ChatResult{Success: false, Message: msgOutsideDomain}
	}
	if intent.Confidence < r.threshold {
		util.IntentsRejectedTotal.WithLabelValues("ambiguous").Inc()
		return &ChatResult{Success: false, Message: msgAmbiguous}
	}

	util.IntentsParsedTotal.WithLabelValues(intent.Action).Inc()

	switch intent.Action {
	case models.ActionBuy:
		return r.resolveBuy(ctx, intent)
	case models.ActionCheckPrice:
		return r.checkPrice(ctx, intent)
	case models.ActionListProducts:
		return r.listProducts(ctx, intent)
	case models.ActionCheckStatus:
		return r.statusReport(ctx, intent)
	default:
		util.IntentsRejectedTotal.WithLabelValues("unrecognized").Inc()
		return &ChatResult{Success: false, Message: msgUnrecognized}
	}
}

// resolveBuy finds a concrete priced product for a buy intent: local
// catalog first, then a live upstream SKU search when provider and
// amount are both known.
func (r *Resolver) resolveBuy(ctx context.Context, intent *models.ParsedIntent) *ChatResult {
	if intent.TargetNumber == "" {
		return &ChatResult{Success: false, Message: msgMissingTarget}
	}

	products, err := r.matchLocal(ctx, intent)
	if err != nil {
		r.logger.Error("Catalog lookup failed", zap.Error(err))
		return &ChatResult{Success: false, Message: "Gagal memproses permintaan pembelian."}
	}

	var order *models.PricedOrder
	if len(products) > 0 {
		// Catalog-insertion order; no further ranking is applied.
		p := products[0]
		order = &models.PricedOrder{
			ProductID:    p.ID,
			ProductName:  p.Name,
			Category:     p.Category,
			TargetNumber: intent.TargetNumber,
			Amount:       p.Price,
			AdminFee:     p.AdminFee,
			TotalAmount:  p.Price + p.AdminFee,
		}
	} else if intent.Provider != "" && intent.Amount > 0 {
		raw, err := r.upstream.FindSKU(ctx, intent.Category, intent.Provider, intent.Amount)
		if err != nil && !errors.Is(err, upstream.ErrSKUNotFound) {
			r.logger.Warn("Upstream SKU search failed", zap.Error(err))
		}
		if raw != nil {
			fee := CalculateAdminFee(raw.Price)
			order = &models.PricedOrder{
				ProductID:    raw.BuyerSKUCode,
				ProductName:  raw.ProductName,
				Category:     intent.Category,
				TargetNumber: intent.TargetNumber,
				Amount:       raw.Price,
				AdminFee:     fee,
				TotalAmount:  raw.Price + fee,
			}
		}
	}

	if order == nil {
		return &ChatResult{
			Success: false,
			Message: r.composer.ErrorAdvice(ctx, "Produk tidak ditemukan"),
		}
	}

	confirmation := r.composer.OrderConfirmation(ctx, order.ProductName, order.TargetNumber, order.Amount, order.AdminFee)
	return &ChatResult{Success: true, Message: confirmation, ProductData: order}
}

// matchLocal applies the catalog filters: category, then case-insensitive
// provider substring, then exact price.
func (r *Resolver) matchLocal(ctx context.Context, intent *models.ParsedIntent) ([]models.Product, error) {
	products, err := r.catalog.GetProductsByCategory(ctx, intent.Category)
	if err != nil {
		return nil, err
	}

	if intent.Provider != "" {
		filtered := products[:0]
		for _, p := range products {
			if strings.Contains(strings.ToLower(p.Provider), strings.ToLower(intent.Provider)) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	if intent.Amount > 0 {
		filtered := products[:0]
		for _, p := range products {
			if p.Price == intent.Amount {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	return products, nil
}

// checkPrice renders a price list for a category/provider, grouped by
// price ascending, capped at 10 tiers.
func (r *Resolver) checkPrice(ctx context.Context, intent *models.ParsedIntent) *ChatResult {
	products, err := r.matchLocal(ctx, intent)
	if err != nil {
		r.logger.Error("Catalog lookup failed", zap.Error(err))
		return &ChatResult{Success: false, Message: "Gagal mengambil data harga produk."}
	}

	if len(products) == 0 {
		return &ChatResult{
			Success: false,
			Message: fmt.Sprintf("Produk %s %s tidak ditemukan.", intent.Category, intent.Provider),
		}
	}

	byPrice := make(map[int64]models.Product)
	var prices []int64
	for _, p := range products {
		if _, seen := byPrice[p.Price]; !seen {
			byPrice[p.Price] = p
			prices = append(prices, p.Price)
		}
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	if len(prices) > 10 {
		prices = prices[:10]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daftar Harga %s %s:\n\n", strings.ToUpper(intent.Category), strings.ToUpper(intent.Provider))
	for _, price := range prices {
		p := byPrice[price]
		fmt.Fprintf(&b, "Rp %s (+ admin Rp %s = Rp %s)\n   %s\n\n",
			ai.FormatRupiah(p.Price), ai.FormatRupiah(p.AdminFee), ai.FormatRupiah(p.Price+p.AdminFee), p.Name)
	}
	fmt.Fprintf(&b, "Untuk membeli: \"Beli %s %s [nominal] untuk [nomor]\"", intent.Category, providerOrPlaceholder(intent.Provider))

	return &ChatResult{Success: true, Message: b.String()}
}

// listProducts renders the available products for a category, grouped by
// provider, capped at 5 providers and 3 entries each.
func (r *Resolver) listProducts(ctx context.Context, intent *models.ParsedIntent) *ChatResult {
	products, err := r.matchLocal(ctx, intent)
	if err != nil {
		r.logger.Error("Catalog lookup failed", zap.Error(err))
		return &ChatResult{Success: false, Message: "Gagal mengambil daftar produk."}
	}

	if len(products) == 0 {
		return &ChatResult{
			Success: false,
			Message: fmt.Sprintf("Tidak ada produk %s %s yang tersedia.", intent.Category, intent.Provider),
		}
	}

	byProvider := make(map[string][]models.Product)
	var providers []string
	for _, p := range products {
		if _, seen := byProvider[p.Provider]; !seen {
			providers = append(providers, p.Provider)
		}
		byProvider[p.Provider] = append(byProvider[p.Provider], p)
	}
	if len(providers) > 5 {
		providers = providers[:5]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Produk %s tersedia:\n\n", strings.ToUpper(intent.Category))
	for _, provider := range providers {
		group := byProvider[provider]
		fmt.Fprintf(&b, "%s (%d produk)\n", strings.ToUpper(provider), len(group))
		shown := group
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, p := range shown {
			fmt.Fprintf(&b, "   - Rp %s (Total: Rp %s)\n", ai.FormatRupiah(p.Price), ai.FormatRupiah(p.Price+p.AdminFee))
		}
		if len(group) > 3 {
			fmt.Fprintf(&b, "   - ... dan %d produk lainnya\n", len(group)-3)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Untuk cek harga detail: \"Cek harga %s [provider]\"", intent.Category)

	return &ChatResult{Success: true, Message: b.String()}
}

// statusReport renders the state of one transaction by id.
func (r *Resolver) statusReport(ctx context.Context, intent *models.ParsedIntent) *ChatResult {
	if intent.TransactionID == "" {
		return &ChatResult{
			Success: false,
			Message: "ID transaksi diperlukan. Contoh: \"Status transaksi TXN123456\"",
		}
	}

	tx, err := r.transactions.GetTransactionByID(ctx, intent.TransactionID)
	if err != nil {
		r.logger.Error("Transaction lookup failed", zap.Error(err))
		return &ChatResult{Success: false, Message: "Gagal mengecek status transaksi."}
	}
	if tx == nil {
		return &ChatResult{
			Success: false,
			Message: fmt.Sprintf("Transaksi dengan ID %s tidak ditemukan.", intent.TransactionID),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status Transaksi %s\n\n", tx.ID)
	fmt.Fprintf(&b, "Status: %s\n", statusText(tx.Status))
	fmt.Fprintf(&b, "Produk: %s\n", tx.ProductName)
	fmt.Fprintf(&b, "Tujuan: %s\n", tx.TargetNumber)
	fmt.Fprintf(&b, "Total: Rp %s\n", ai.FormatRupiah(tx.TotalAmount))
	fmt.Fprintf(&b, "Waktu: %s\n", tx.CreatedAt.Format("02-01-2006 15:04"))
	if tx.Status == models.StatusPending {
		b.WriteString("\nTransaksi menunggu pembayaran...")
	}

	return &ChatResult{Success: true, Message: b.String()}
}

func statusText(status string) string {
	switch status {
	case models.StatusPending:
		return "Menunggu Pembayaran"
	case models.StatusPaid:
		return "Dibayar, sedang diproses"
	case models.StatusSuccess:
		return "Berhasil"
	case models.StatusFailed:
		return "Gagal"
	default:
		return status
	}
}

func providerOrPlaceholder(provider string) string {
	if provider == "" {
		return "[provider]"
	}
	return provider
}
