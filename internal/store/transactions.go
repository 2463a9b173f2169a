package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ppob-service/internal/models"
)

// CreateTransaction inserts a new transaction row
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions
			(id, product_type, product_sku, product_name, target_number,
			 amount, admin_fee, total_amount, status, payment_url,
			 gateway_ref, upstream_ref, ai_command)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, tx, query,
		tx.ID, tx.ProductType, tx.ProductSKU, tx.ProductName, tx.TargetNumber,
		tx.Amount, tx.AdminFee, tx.TotalAmount, tx.Status, tx.PaymentURL,
		tx.GatewayRef, tx.UpstreamRef, tx.AICommand)
}

// GetTransactionByID retrieves a transaction by ID
func (s *Store) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.GetContext(ctx, &tx, "SELECT * FROM transactions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionByGatewayRef retrieves a transaction by the payment
// gateway reference. The column is indexed; the webhook path depends on
// this being a point lookup.
func (s *Store) GetTransactionByGatewayRef(ctx context.Context, ref string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.GetContext(ctx, &tx, "SELECT * FROM transactions WHERE gateway_ref = $1", ref)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionsByTargetNumber retrieves transactions for a target
// number, newest first
func (s *Store) GetTransactionsByTargetNumber(ctx context.Context, targetNumber string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions WHERE target_number = $1 ORDER BY created_at DESC", targetNumber)
	return txs, err
}

// GetRecentTransactions retrieves the most recent transactions
func (s *Store) GetRecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions ORDER BY created_at DESC LIMIT $1", limit)
	return txs, err
}

// GetTransactionsCreatedBetween retrieves transactions created in
// [from, to), used by the daily stats aggregation
func (s *Store) GetTransactionsCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions WHERE created_at >= $1 AND created_at < $2", from, to)
	return txs, err
}

// SetPaymentDetails stores the gateway redirect URL and reference after
// payment creation
func (s *Store) SetPaymentDetails(ctx context.Context, id, paymentURL, gatewayRef string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET payment_url = $1, gateway_ref = $2, updated_at = NOW() WHERE id = $3",
		paymentURL, gatewayRef, id)
	return err
}

// TransitionStatus moves a transaction from one status to another with a
// compare-and-set guard. It returns false when the row is not currently
// in the expected status, which makes re-applied webhook transitions
// no-ops and keeps the state machine monotonic.
func (s *Store) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition transaction %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// MarkFulfilled promotes a paid transaction to success and records the
// upstream fulfillment reference, guarded the same way as TransitionStatus
func (s *Store) MarkFulfilled(ctx context.Context, id, upstreamRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = $1, upstream_ref = $2, updated_at = NOW() WHERE id = $3 AND status = $4",
		models.StatusSuccess, upstreamRef, id, models.StatusPaid)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction %s fulfilled: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
