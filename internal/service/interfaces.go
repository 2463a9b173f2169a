package service

import (
	"context"
	"time"

	"ppob-service/internal/models"
	"ppob-service/internal/payment"
	"ppob-service/internal/upstream"
)

// CatalogStore is the product collection. Writes happen only through
// ReplaceAllProducts; the order pipeline treats products as read-only.
type CatalogStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	CountProducts(ctx context.Context) (int, error)
	ReplaceAllProducts(ctx context.Context, products []models.Product) error
}

// TransactionStore is the transaction collection. All status mutations go
// through the guarded TransitionStatus/MarkFulfilled operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	GetTransactionByGatewayRef(ctx context.Context, ref string) (*models.Transaction, error)
	GetTransactionsByTargetNumber(ctx context.Context, targetNumber string) ([]models.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	GetTransactionsCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	SetPaymentDetails(ctx context.Context, id, paymentURL, gatewayRef string) error
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	MarkFulfilled(ctx context.Context, id, upstreamRef string) (bool, error)
}

// UpstreamClient is the reseller API surface the services depend on.
type UpstreamClient interface {
	FetchCatalog(ctx context.Context) ([]upstream.RawProduct, error)
	FindSKU(ctx context.Context, category, provider string, amount int64) (*upstream.RawProduct, error)
	SubmitTopup(ctx context.Context, skuCode, customerNo, refID string) (*upstream.TopupResult, error)
	CheckStatus(ctx context.Context, skuCode, customerNo, refID string) (*upstream.TopupResult, error)
}

// PaymentGateway is the payment provider surface the services depend on.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, uniqueCode string, amount int64, note, service string, validSeconds int) (*payment.Session, error)
	CheckPaymentStatus(ctx context.Context, uniqueCode string) (*payment.Status, error)
}

// IntentParser turns a chat command into a structured intent.
type IntentParser interface {
	Parse(ctx context.Context, command string) (*models.ParsedIntent, error)
}

// WebhookGuard serializes webhook processing per gateway reference and
// remembers already-applied deliveries.
type WebhookGuard interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
	MarkWebhookProcessed(ctx context.Context, ref, status string, ttl time.Duration) error
	IsWebhookProcessed(ctx context.Context, ref, status string) (bool, error)
}

// LifecycleEventPublisher emits best-effort transaction lifecycle events.
type LifecycleEventPublisher interface {
	PublishTransactionCreated(ctx context.Context, event *models.TransactionCreatedEvent) error
	PublishTransactionPaid(ctx context.Context, event *models.TransactionPaidEvent) error
	PublishTransactionFailed(ctx context.Context, event *models.TransactionFailedEvent) error
	PublishFulfillmentSuccess(ctx context.Context, event *models.FulfillmentSuccessEvent) error
	PublishFulfillmentFlagged(ctx context.Context, event *models.FulfillmentFlaggedEvent) error
}
