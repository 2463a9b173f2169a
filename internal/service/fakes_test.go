package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ppob-service/internal/models"
	"ppob-service/internal/payment"
	"ppob-service/internal/upstream"
)

// In-memory doubles for the service interfaces. They model just enough
// behavior for the pipeline tests: guarded status transitions, gateway
// reference lookup, and recorded calls for assertions.

type fakeCatalog struct {
	products []models.Product
	err      error
}

func (f *fakeCatalog) GetProducts(_ context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) GetProductsByCategory(_ context.Context, category string) ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Product
	for _, p := range f.products {
		if p.Category == category && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) CountProducts(_ context.Context) (int, error) {
	return len(f.products), f.err
}

func (f *fakeCatalog) ReplaceAllProducts(_ context.Context, products []models.Product) error {
	if f.err != nil {
		return f.err
	}
	f.products = products
	return nil
}

type fakeTxStore struct {
	transactions map[string]*models.Transaction
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{transactions: make(map[string]*models.Transaction)}
}

func (f *fakeTxStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	cp := *tx
	f.transactions[tx.ID] = &cp
	return nil
}

func (f *fakeTxStore) GetTransactionByID(_ context.Context, id string) (*models.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeTxStore) GetTransactionByGatewayRef(_ context.Context, ref string) (*models.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.GatewayRef == ref {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTxStore) GetTransactionsByTargetNumber(_ context.Context, targetNumber string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		if tx.TargetNumber == targetNumber {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeTxStore) GetRecentTransactions(_ context.Context, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		out = append(out, *tx)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTxStore) GetTransactionsCreatedBetween(_ context.Context, from, to time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		if !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to) {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeTxStore) SetPaymentDetails(_ context.Context, id, paymentURL, gatewayRef string) error {
	tx, ok := f.transactions[id]
	if !ok {
		return errors.New("transaction not found")
	}
	tx.PaymentURL = paymentURL
	tx.GatewayRef = gatewayRef
	return nil
}

func (f *fakeTxStore) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	tx, ok := f.transactions[id]
	if !ok || tx.Status != from {
		return false, nil
	}
	tx.Status = to
	tx.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeTxStore) MarkFulfilled(_ context.Context, id, upstreamRef string) (bool, error) {
	tx, ok := f.transactions[id]
	if !ok || tx.Status != models.StatusPaid {
		return false, nil
	}
	tx.Status = models.StatusSuccess
	tx.UpstreamRef = upstreamRef
	tx.UpdatedAt = time.Now()
	return true, nil
}

type fakeUpstream struct {
	catalog      []upstream.RawProduct
	findResult   *upstream.RawProduct
	findErr      error
	topupResult  *upstream.TopupResult
	topupErr     error
	statusResult *upstream.TopupResult
	statusErr    error
	topupCalls   int
	statusCalls  int
}

func (f *fakeUpstream) FetchCatalog(_ context.Context) ([]upstream.RawProduct, error) {
	return f.catalog, nil
}

func (f *fakeUpstream) FindSKU(_ context.Context, _, _ string, _ int64) (*upstream.RawProduct, error) {
	return f.findResult, f.findErr
}

func (f *fakeUpstream) SubmitTopup(_ context.Context, _, _, _ string) (*upstream.TopupResult, error) {
	f.topupCalls++
	return f.topupResult, f.topupErr
}

func (f *fakeUpstream) CheckStatus(_ context.Context, _, _, _ string) (*upstream.TopupResult, error) {
	f.statusCalls++
	return f.statusResult, f.statusErr
}

type fakeGateway struct {
	session     *payment.Session
	createErr   error
	createCalls int
}

func (f *fakeGateway) CreatePayment(_ context.Context, uniqueCode string, _ int64, _, _ string, _ int) (*payment.Session, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.session != nil {
		return f.session, nil
	}
	return &payment.Session{
		GatewayRef:  "PD-" + uniqueCode,
		CheckoutURL: "https://pay.example/" + uniqueCode,
	}, nil
}

func (f *fakeGateway) CheckPaymentStatus(_ context.Context, _ string) (*payment.Status, error) {
	return nil, errors.New("not implemented")
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishTransactionCreated(_ context.Context, e *models.TransactionCreatedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishTransactionPaid(_ context.Context, e *models.TransactionPaidEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishTransactionFailed(_ context.Context, e *models.TransactionFailedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishFulfillmentSuccess(_ context.Context, e *models.FulfillmentSuccessEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) PublishFulfillmentFlagged(_ context.Context, e *models.FulfillmentFlaggedEvent) error {
	f.events = append(f.events, e.EventType)
	return nil
}

func (f *fakePublisher) has(eventType string) bool {
	for _, e := range f.events {
		if e == eventType {
			return true
		}
	}
	return false
}

type fakeGuard struct {
	held      map[string]bool
	processed map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: make(map[string]bool), processed: make(map[string]bool)}
}

func (f *fakeGuard) AcquireLock(_ context.Context, lockKey string, _ time.Duration) (bool, error) {
	if f.held[lockKey] {
		return false, nil
	}
	f.held[lockKey] = true
	return true, nil
}

func (f *fakeGuard) ReleaseLock(_ context.Context, lockKey string) error {
	delete(f.held, lockKey)
	return nil
}

func (f *fakeGuard) MarkWebhookProcessed(_ context.Context, ref, status string, _ time.Duration) error {
	f.processed[ref+":"+status] = true
	return nil
}

func (f *fakeGuard) IsWebhookProcessed(_ context.Context, ref, status string) (bool, error) {
	return f.processed[ref+":"+status], nil
}

// hasPrefix keeps assertions on generated IDs readable
func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix)
}
