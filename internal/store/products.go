package store

import (
	"context"
	"database/sql"
	"fmt"

	"ppob-service/internal/models"
)

// GetProducts retrieves all active products in catalog order
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT id, category, provider, name, price, admin_fee, is_active FROM products WHERE is_active = true ORDER BY seq")
	return products, err
}

// GetProductsByCategory retrieves active products for one category
func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT id, category, provider, name, price, admin_fee, is_active FROM products WHERE category = $1 AND is_active = true ORDER BY seq", category)
	return products, err
}

// GetProductByID retrieves a product by its SKU id
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT id, category, provider, name, price, admin_fee, is_active FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CountProducts returns the total number of products, active or not
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}

// ReplaceAllProducts swaps the whole catalog inside one database
// transaction. Readers observe either the previous generation or the new
// one, never a mix; an aborted sync leaves the old catalog in place.
func (s *Store) ReplaceAllProducts(ctx context.Context, products []models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO products (id, category, provider, name, price, admin_fee, is_active, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Category, p.Provider, p.Name, p.Price, p.AdminFee, p.IsActive, i); err != nil {
			return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}
