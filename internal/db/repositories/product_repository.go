// product_repository.go implements ProductRepository for stock items and their
// movement history.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// ProductRepository handles product database operations
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productSelectColumns = `id, name, sku, price, quantity, unit, created_at, updated_at`

// CreateProduct creates a new product
func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New().String()
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	query := `
		INSERT INTO products (id, name, sku, price, quantity, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.SKU,
		product.Price,
		product.Quantity,
		product.Unit,
		product.CreatedAt,
		product.UpdatedAt,
	)

	return err
}

// GetProduct retrieves a product by ID
func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	query := `SELECT ` + productSelectColumns + ` FROM products WHERE id = $1`

	product := &models.Product{}
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Price,
		&product.Quantity,
		&product.Unit,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return product, nil
}

// UpdateProduct updates a product's information
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()

	query := `
		UPDATE products
		SET name = $2, sku = $3, price = $4, quantity = $5, unit = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.SKU,
		product.Price,
		product.Quantity,
		product.Unit,
		product.UpdatedAt,
	)

	return err
}

// DeleteProduct deletes a product
func (r *ProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	query := `DELETE FROM products WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, productID)
	return err
}

// ListProducts retrieves a paginated list of products, optionally filtered by a
// name or SKU search.
func (r *ProductRepository) ListProducts(ctx context.Context, search string, limit, offset int) ([]*models.Product, int, error) {
	countQuery := `SELECT COUNT(*) FROM products`
	query := `SELECT ` + productSelectColumns + ` FROM products`

	args := make([]interface{}, 0)
	if search != "" {
		countQuery += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		query += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if search != "" {
		query += ` ORDER BY name ASC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY name ASC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product := &models.Product{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.SKU,
			&product.Price,
			&product.Quantity,
			&product.Unit,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}

	return products, total, rows.Err()
}

// ListStockMovements retrieves the movement history of one product, newest first.
func (r *ProductRepository) ListStockMovements(ctx context.Context, productID string, limit, offset int) ([]*models.StockMovement, error) {
	query := `
		SELECT id, product_id, sale_id, delta, reason, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]*models.StockMovement, 0)
	for rows.Next() {
		m := &models.StockMovement{}
		err := rows.Scan(&m.ID, &m.ProductID, &m.SaleID, &m.Delta, &m.Reason, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
