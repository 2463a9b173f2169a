package models

import "time"

// Product is one purchasable item in the catalog. The ID is the upstream
// SKU for synced products or a seed slug for the built-in set.
type Product struct {
	ID       string `db:"id" json:"id"`
	Category string `db:"category" json:"category"`
	Provider string `db:"provider" json:"provider"`
	Name     string `db:"name" json:"name"`
	Price    int64  `db:"price" json:"price"`
	AdminFee int64  `db:"admin_fee" json:"adminFee"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// Product categories
const (
	CategoryPulsa        = "pulsa"
	CategoryTokenListrik = "token_listrik"
	CategoryGameVoucher  = "game_voucher"
	CategoryEwallet      = "ewallet"
	CategoryTVStreaming  = "tv_streaming"
)

// Intent actions produced by the parser
const (
	ActionBuy          = "buy"
	ActionCheckPrice   = "check_price"
	ActionListProducts = "list_products"
	ActionCheckStatus  = "check_status"
)

// ParsedIntent is the structured form of a chat command. It is produced
// per request and never persisted.
type ParsedIntent struct {
	Action        string  `json:"intent"`
	Category      string  `json:"productType"`
	Provider      string  `json:"provider,omitempty"`
	Amount        int64   `json:"amount,omitempty"`
	TargetNumber  string  `json:"targetNumber,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// Transaction is a purchase record. TotalAmount is the fee snapshot taken
// at creation time (Amount + AdminFee) and never changes afterwards.
// ProductSKU is stored at creation so fulfillment never has to re-derive
// the upstream SKU from the display name.
type Transaction struct {
	ID           string    `db:"id" json:"id"`
	ProductType  string    `db:"product_type" json:"productType"`
	ProductSKU   string    `db:"product_sku" json:"productSku"`
	ProductName  string    `db:"product_name" json:"productName"`
	TargetNumber string    `db:"target_number" json:"targetNumber"`
	Amount       int64     `db:"amount" json:"amount"`
	AdminFee     int64     `db:"admin_fee" json:"adminFee"`
	TotalAmount  int64     `db:"total_amount" json:"totalAmount"`
	Status       string    `db:"status" json:"status"`
	PaymentURL   string    `db:"payment_url" json:"paymentUrl,omitempty"`
	GatewayRef   string    `db:"gateway_ref" json:"gatewayRef,omitempty"`
	UpstreamRef  string    `db:"upstream_ref" json:"upstreamRef,omitempty"`
	AICommand    string    `db:"ai_command" json:"aiCommand,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Transaction statuses. Transitions only ever move forward:
// pending -> paid -> success, pending -> failed. A transaction that is
// paid but could not be fulfilled stays paid and is flagged for manual
// review; money was already captured so it must never become failed.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// DailyStats is the admin dashboard aggregate for one date. It is derived
// from the transaction set on demand and is a cache, not a source of truth.
type DailyStats struct {
	Date         string `json:"date"`
	Count        int    `json:"todayTransactions"`
	Revenue      int64  `json:"todayRevenue"`
	PendingCount int    `json:"pendingTransactions"`
	FailedCount  int    `json:"failedTransactions"`
}

// PricedOrder is the resolver's answer for a buy intent: a concrete
// product plus the recomputed total.
type PricedOrder struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	Category     string `json:"productType"`
	TargetNumber string `json:"targetNumber"`
	Amount       int64  `json:"amount"`
	AdminFee     int64  `json:"adminFee"`
	TotalAmount  int64  `json:"totalAmount"`
}
