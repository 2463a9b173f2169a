package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ppob-service/internal/models"
	"ppob-service/internal/payment"
	"ppob-service/internal/upstream"
	"ppob-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTransactionNotFound is returned by webhook handling when the gateway
// reference does not match any transaction.
var ErrTransactionNotFound = errors.New("transaction not found")

// CreateTransactionRequest is the confirmed order the API layer hands to
// the lifecycle manager. Amount is advisory; price and fee are recomputed
// server-side before anything is persisted.
type CreateTransactionRequest struct {
	ProductID    string `json:"productId" binding:"required"`
	ProductName  string `json:"productName"`
	ProductType  string `json:"productType" binding:"required"`
	TargetNumber string `json:"targetNumber" binding:"required"`
	Amount       int64  `json:"amount"`
	AICommand    string `json:"aiCommand"`
}

// LifecycleConfig carries the business knobs of the transaction pipeline.
type LifecycleConfig struct {
	PaymentService         string
	PaymentValiditySeconds int
	WebhookLockTTL         time.Duration
}

// LifecycleManager drives a transaction through its whole life: creation
// with a payment session, webhook-triggered payment confirmation, upstream
// fulfillment, and reconciliation of flagged fulfillments.
type LifecycleManager struct {
	transactions TransactionStore
	catalog      CatalogStore
	gateway      PaymentGateway
	upstream     UpstreamClient
	publisher    LifecycleEventPublisher
	guard        WebhookGuard
	cfg          LifecycleConfig
	logger       *zap.Logger
}

// processedMarkTTL bounds how long an applied webhook delivery is
// remembered for fast redelivery answers.
const processedMarkTTL = 24 * time.Hour

// NewLifecycleManager creates a lifecycle manager
func NewLifecycleManager(
	transactions TransactionStore,
	catalog CatalogStore,
	gateway PaymentGateway,
	upstreamClient UpstreamClient,
	publisher LifecycleEventPublisher,
	guard WebhookGuard,
	cfg LifecycleConfig,
) *LifecycleManager {
	return &LifecycleManager{
		transactions: transactions,
		catalog:      catalog,
		gateway:      gateway,
		upstream:     upstreamClient,
		publisher:    publisher,
		guard:        guard,
		cfg:          cfg,
		logger:       util.GetLogger(),
	}
}

// CreateTransaction prices the order server-side, persists it as pending
// and opens a payment session. A transaction whose session cannot be
// created is moved straight to failed.
func (lm *LifecycleManager) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.CreateTransaction")
	defer span.End()

	amount := req.Amount
	name := req.ProductName
	sku := req.ProductID

	// Never trust client-side prices. Products known to the catalog fix
	// both price and fee; live-upstream products get the fee recomputed
	// from the submitted amount.
	product, err := lm.catalog.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	var fee int64
	if product != nil {
		amount = product.Price
		fee = product.AdminFee
		name = product.Name
	} else {
		if amount <= 0 {
			return nil, fmt.Errorf("invalid amount for unknown product %s", req.ProductID)
		}
		fee = CalculateAdminFee(amount)
	}

	tx := &models.Transaction{
		ID:           fmt.Sprintf("TXN-%s", uuid.New().String()),
		ProductType:  req.ProductType,
		ProductSKU:   sku,
		ProductName:  name,
		TargetNumber: req.TargetNumber,
		Amount:       amount,
		AdminFee:     fee,
		TotalAmount:  amount + fee,
		Status:       models.StatusPending,
		AICommand:    req.AICommand,
	}

	if err := lm.transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	note := fmt.Sprintf("%s - %s", name, req.TargetNumber)
	session, err := lm.gateway.CreatePayment(ctx, tx.ID, tx.TotalAmount, note, lm.cfg.PaymentService, lm.cfg.PaymentValiditySeconds)
	if err != nil {
		lm.logger.Error("Payment session creation failed",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		if _, terr := lm.transactions.TransitionStatus(ctx, tx.ID, models.StatusPending, models.StatusFailed); terr != nil {
			lm.logger.Error("Failed to mark transaction failed", zap.String("transaction_id", tx.ID), zap.Error(terr))
		}
		util.TransactionsFailedTotal.WithLabelValues("payment_create").Inc()
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := lm.transactions.SetPaymentDetails(ctx, tx.ID, session.CheckoutURL, session.GatewayRef); err != nil {
		return nil, fmt.Errorf("failed to store payment details: %w", err)
	}
	tx.PaymentURL = session.CheckoutURL
	tx.GatewayRef = session.GatewayRef

	lm.publishCreated(ctx, tx)
	util.TransactionsCreatedTotal.Inc()

	lm.logger.Info("Transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("product_sku", tx.ProductSKU),
		zap.Int64("total_amount", tx.TotalAmount))

	return tx, nil
}

// HandlePaymentWebhook applies one gateway notification. It is safe to
// call concurrently and with duplicate deliveries; the per-reference lock
// plus guarded status transitions make re-delivery a no-op.
func (lm *LifecycleManager) HandlePaymentWebhook(ctx context.Context, gatewayRef, status string) error {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.HandlePaymentWebhook")
	defer span.End()

	lockKey := fmt.Sprintf("webhook:%s", gatewayRef)
	acquired, err := lm.guard.AcquireLock(ctx, lockKey, lm.cfg.WebhookLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire webhook lock: %w", err)
	}
	if !acquired {
		lm.logger.Warn("Webhook already being processed", zap.String("gateway_ref", gatewayRef))
		util.WebhookDuplicatesTotal.Inc()
		return nil
	}
	defer func() {
		if err := lm.guard.ReleaseLock(ctx, lockKey); err != nil {
			lm.logger.Warn("Failed to release webhook lock", zap.String("gateway_ref", gatewayRef), zap.Error(err))
		}
	}()

	processed, err := lm.guard.IsWebhookProcessed(ctx, gatewayRef, status)
	if err != nil {
		lm.logger.Warn("Processed-webhook check failed", zap.String("gateway_ref", gatewayRef), zap.Error(err))
	} else if processed {
		util.WebhookDuplicatesTotal.Inc()
		return nil
	}

	tx, err := lm.transactions.GetTransactionByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil {
		return ErrTransactionNotFound
	}

	switch status {
	case payment.WebhookStatusSuccess:
		err = lm.handlePaid(ctx, tx, gatewayRef)
	case payment.WebhookStatusCanceled, payment.WebhookStatusExpired:
		err = lm.handleAborted(ctx, tx, gatewayRef, status)
	default:
		lm.logger.Warn("Unknown webhook status",
			zap.String("gateway_ref", gatewayRef),
			zap.String("status", status))
		return nil
	}
	if err != nil {
		return err
	}

	if err := lm.guard.MarkWebhookProcessed(ctx, gatewayRef, status, processedMarkTTL); err != nil {
		lm.logger.Warn("Failed to mark webhook processed", zap.String("gateway_ref", gatewayRef), zap.Error(err))
	}
	return nil
}

func (lm *LifecycleManager) handlePaid(ctx context.Context, tx *models.Transaction, gatewayRef string) error {
	moved, err := lm.transactions.TransitionStatus(ctx, tx.ID, models.StatusPending, models.StatusPaid)
	if err != nil {
		return fmt.Errorf("failed to mark transaction paid: %w", err)
	}
	if !moved {
		// Already paid or terminal; duplicate delivery.
		lm.logger.Info("Duplicate payment webhook ignored",
			zap.String("transaction_id", tx.ID),
			zap.String("status", tx.Status))
		util.WebhookDuplicatesTotal.Inc()
		return nil
	}

	util.TransactionsPaidTotal.Inc()
	lm.publishPaid(ctx, tx, gatewayRef)

	lm.logger.Info("Payment confirmed", zap.String("transaction_id", tx.ID))
	return lm.fulfill(ctx, tx)
}

func (lm *LifecycleManager) handleAborted(ctx context.Context, tx *models.Transaction, gatewayRef, status string) error {
	moved, err := lm.transactions.TransitionStatus(ctx, tx.ID, models.StatusPending, models.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	if !moved {
		util.WebhookDuplicatesTotal.Inc()
		return nil
	}

	util.TransactionsFailedTotal.WithLabelValues("payment_aborted").Inc()
	lm.publishFailed(ctx, tx, gatewayRef, status)

	lm.logger.Info("Payment aborted",
		zap.String("transaction_id", tx.ID),
		zap.String("status", status))
	return nil
}

// fulfill submits the top-up for a paid transaction. A failure here never
// fails the transaction; money was captured, so it stays paid and is
// flagged for reconciliation.
func (lm *LifecycleManager) fulfill(ctx context.Context, tx *models.Transaction) error {
	result, err := lm.upstream.SubmitTopup(ctx, tx.ProductSKU, tx.TargetNumber, tx.ID)
	if err != nil {
		lm.logger.Error("Fulfillment failed, transaction flagged",
			zap.String("transaction_id", tx.ID),
			zap.String("product_sku", tx.ProductSKU),
			zap.Error(err))
		util.FulfillmentFlaggedTotal.Inc()
		lm.publishFlagged(ctx, tx, err.Error())
		return nil
	}

	if result.Status == upstream.TopupStatusPending {
		// The upstream accepted the order but has not completed it. The
		// reconciliation worker picks it up from the flagged stream.
		lm.logger.Info("Fulfillment pending upstream", zap.String("transaction_id", tx.ID))
		util.FulfillmentFlaggedTotal.Inc()
		lm.publishFlagged(ctx, tx, "upstream pending")
		return nil
	}

	return lm.completeFulfillment(ctx, tx, result)
}

// ReconcileFlagged re-checks upstream status for a flagged transaction.
// It runs from the reconciliation worker and is idempotent.
func (lm *LifecycleManager) ReconcileFlagged(ctx context.Context, event *models.FulfillmentFlaggedEvent) error {
	ctx, span := util.StartSpan(ctx, "LifecycleManager.ReconcileFlagged")
	defer span.End()

	tx, err := lm.transactions.GetTransactionByID(ctx, event.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if tx == nil || tx.Status != models.StatusPaid {
		// Already resolved, or not in a reconcilable state.
		return nil
	}

	result, err := lm.upstream.CheckStatus(ctx, tx.ProductSKU, tx.TargetNumber, tx.ID)
	if err != nil {
		lm.logger.Warn("Reconciliation status check failed",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		return err
	}

	if result.Status != upstream.TopupStatusSuccess {
		lm.logger.Info("Transaction still unresolved upstream",
			zap.String("transaction_id", tx.ID),
			zap.String("upstream_status", result.Status))
		return nil
	}

	return lm.completeFulfillment(ctx, tx, result)
}

func (lm *LifecycleManager) completeFulfillment(ctx context.Context, tx *models.Transaction, result *upstream.TopupResult) error {
	upstreamRef := result.SerialNumber
	if upstreamRef == "" {
		upstreamRef = result.RefID
	}

	moved, err := lm.transactions.MarkFulfilled(ctx, tx.ID, upstreamRef)
	if err != nil {
		return fmt.Errorf("failed to mark transaction fulfilled: %w", err)
	}
	if !moved {
		return nil
	}

	util.TransactionsFulfilledTotal.Inc()
	lm.publishFulfilled(ctx, tx, upstreamRef)

	lm.logger.Info("Fulfillment complete",
		zap.String("transaction_id", tx.ID),
		zap.String("upstream_ref", upstreamRef))
	return nil
}

// Event publishing is best effort. A broker outage must never block or
// fail the purchase pipeline.

func (lm *LifecycleManager) publishCreated(ctx context.Context, tx *models.Transaction) {
	event := &models.TransactionCreatedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeTransactionCreated),
		TransactionID: tx.ID,
		ProductSKU:    tx.ProductSKU,
		TargetNumber:  tx.TargetNumber,
		TotalAmount:   tx.TotalAmount,
	}
	if err := lm.publisher.PublishTransactionCreated(ctx, event); err != nil {
		lm.logger.Warn("Failed to publish TransactionCreated", zap.Error(err))
	}
}

func (lm *LifecycleManager) publishPaid(ctx context.Context, tx *models.Transaction, gatewayRef string) {
	event := &models.TransactionPaidEvent{
		BaseEvent:     newBaseEvent(models.EventTypeTransactionPaid),
		TransactionID: tx.ID,
		GatewayRef:    gatewayRef,
		TotalAmount:   tx.TotalAmount,
	}
	if err := lm.publisher.PublishTransactionPaid(ctx, event); err != nil {
		lm.logger.Warn("Failed to publish TransactionPaid", zap.Error(err))
	}
}

func (lm *LifecycleManager) publishFailed(ctx context.Context, tx *models.Transaction, gatewayRef, reason string) {
	event := &models.TransactionFailedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeTransactionFailed),
		TransactionID: tx.ID,
		GatewayRef:    gatewayRef,
		Reason:        reason,
	}
	if err := lm.publisher.PublishTransactionFailed(ctx, event); err != nil {
		lm.logger.Warn("Failed to publish TransactionFailed", zap.Error(err))
	}
}

func (lm *LifecycleManager) publishFulfilled(ctx context.Context, tx *models.Transaction, upstreamRef string) {
	event := &models.FulfillmentSuccessEvent{
		BaseEvent:     newBaseEvent(models.EventTypeFulfillmentSuccess),
		TransactionID: tx.ID,
		UpstreamRef:   upstreamRef,
	}
	if err := lm.publisher.PublishFulfillmentSuccess(ctx, event); err != nil {
		lm.logger.Warn("Failed to publish FulfillmentSuccess", zap.Error(err))
	}
}

func (lm *LifecycleManager) publishFlagged(ctx context.Context, tx *models.Transaction, reason string) {
	event := &models.FulfillmentFlaggedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeFulfillmentFlagged),
		TransactionID: tx.ID,
		ProductSKU:    tx.ProductSKU,
		Reason:        reason,
	}
	if err := lm.publisher.PublishFulfillmentFlagged(ctx, event); err != nil {
		lm.logger.Warn("Failed to publish FulfillmentFlagged", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}
