package models

import "time"

// Event types
const (
	EventTypeTransactionCreated  = "TRANSACTION_CREATED"
	EventTypeTransactionPaid     = "TRANSACTION_PAID"
	EventTypeTransactionFailed   = "TRANSACTION_FAILED"
	EventTypeFulfillmentSuccess  = "FULFILLMENT_SUCCESS"
	EventTypeFulfillmentFlagged  = "FULFILLMENT_FLAGGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionCreatedEvent published when a transaction enters pending
type TransactionCreatedEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	ProductSKU    string `json:"product_sku"`
	TargetNumber  string `json:"target_number"`
	TotalAmount   int64  `json:"total_amount"`
}

// TransactionPaidEvent published when the gateway confirms payment
type TransactionPaidEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	GatewayRef    string `json:"gateway_ref"`
	TotalAmount   int64  `json:"total_amount"`
}

// TransactionFailedEvent published when payment is canceled or expires
type TransactionFailedEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	GatewayRef    string `json:"gateway_ref"`
	Reason        string `json:"reason"`
}

// FulfillmentSuccessEvent published when the upstream top-up completes
type FulfillmentSuccessEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	UpstreamRef   string `json:"upstream_ref"`
}

// FulfillmentFlaggedEvent published when a paid transaction could not be
// fulfilled upstream. The reconciliation worker consumes these and
// re-checks upstream status; unresolved cases go to manual review.
type FulfillmentFlaggedEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	ProductSKU    string `json:"product_sku"`
	Reason        string `json:"reason"`
}
