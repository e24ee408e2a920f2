// sale_repository.go implements SaleRepository. Creating a sale is one
// transaction covering the sale row, its line items, the stock decrements with
// their movement rows, and the debt row when the sale is not fully paid.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// SaleRepository handles sale database operations
type SaleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

const saleSelectColumns = `id, invoice_number, customer_id, customer_name, total_amount,
		paid_amount, debt_amount, payment_method, sold_by, created_at`

// ProductChange is one product's quantity before and after a sale.
type ProductChange struct {
	Before *models.Product
	After  *models.Product
}

// SaleResult is everything a completed sale transaction produced, so the caller
// can audit each row with before and after snapshots.
type SaleResult struct {
	Sale      *models.Sale
	Items     []*models.SaleItem
	Movements []*models.StockMovement
	Debt      *models.Debt
	Products  []ProductChange
}

// CreateSale persists a sale atomically: the sale row, its items, a stock
// decrement and movement row per item, and a debt row when debt_amount is
// positive. Insufficient stock aborts the whole transaction.
func (r *SaleRepository) CreateSale(ctx context.Context, sale *models.Sale, items []*models.SaleItem) (*SaleResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()
	sale.ID = uuid.New().String()
	sale.CreatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, invoice_number, customer_id, customer_name, total_amount,
			paid_amount, debt_amount, payment_method, sold_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sale.ID,
		sale.InvoiceNumber,
		sale.CustomerID,
		sale.CustomerName,
		sale.TotalAmount,
		sale.PaidAmount,
		sale.DebtAmount,
		sale.PaymentMethod,
		sale.SoldBy,
		sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	result := &SaleResult{Sale: sale}

	for _, item := range items {
		item.ID = uuid.New().String()
		item.SaleID = sale.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.SaleID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal,
		)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, item)

		before, after, err := decrementStock(ctx, tx, item.ProductID, item.Quantity, now)
		if err != nil {
			return nil, err
		}
		result.Products = append(result.Products, ProductChange{Before: before, After: after})

		movement := &models.StockMovement{
			ID:        uuid.New().String(),
			ProductID: item.ProductID,
			SaleID:    &sale.ID,
			Delta:     -item.Quantity,
			Reason:    "SALE",
			CreatedAt: now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (id, product_id, sale_id, delta, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			movement.ID, movement.ProductID, movement.SaleID, movement.Delta, movement.Reason, movement.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result.Movements = append(result.Movements, movement)
	}

	if sale.DebtAmount.IsPositive() {
		if sale.CustomerID == nil {
			return nil, fmt.Errorf("sale with debt requires a customer")
		}
		debt := &models.Debt{
			ID:              uuid.New().String(),
			CustomerID:      *sale.CustomerID,
			SaleID:          &sale.ID,
			TotalAmount:     sale.DebtAmount,
			RemainingAmount: sale.DebtAmount,
			Status:          models.DebtStatusActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO debts (id, customer_id, sale_id, total_amount, remaining_amount, status, due_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			debt.ID, debt.CustomerID, debt.SaleID, debt.TotalAmount, debt.RemainingAmount,
			debt.Status, debt.DueDate, debt.CreatedAt, debt.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE customers SET balance = balance - $2, updated_at = $3 WHERE id = $1`,
			debt.CustomerID, sale.DebtAmount, now,
		)
		if err != nil {
			return nil, err
		}
		result.Debt = debt
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// decrementStock reads the product, checks availability, and applies the
// decrement, returning before and after snapshots.
func decrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int64, now time.Time) (*models.Product, *models.Product, error) {
	before := &models.Product{}
	err := tx.QueryRowContext(ctx,
		`SELECT `+productSelectColumns+` FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(
		&before.ID,
		&before.Name,
		&before.SKU,
		&before.Price,
		&before.Quantity,
		&before.Unit,
		&before.CreatedAt,
		&before.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("product %s not found", productID)
	}
	if err != nil {
		return nil, nil, err
	}

	if before.Quantity < quantity {
		return nil, nil, fmt.Errorf("insufficient stock for %s: have %d, need %d", before.Name, before.Quantity, quantity)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE products SET quantity = quantity - $2, updated_at = $3 WHERE id = $1`,
		productID, quantity, now,
	)
	if err != nil {
		return nil, nil, err
	}

	after := *before
	after.Quantity -= quantity
	after.UpdatedAt = now
	return before, &after, nil
}

// GetSale retrieves a sale by ID with its line items.
func (r *SaleRepository) GetSale(ctx context.Context, saleID string) (*models.Sale, []*models.SaleItem, error) {
	query := `SELECT ` + saleSelectColumns + ` FROM sales WHERE id = $1`

	sale := &models.Sale{}
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(
		&sale.ID,
		&sale.InvoiceNumber,
		&sale.CustomerID,
		&sale.CustomerName,
		&sale.TotalAmount,
		&sale.PaidAmount,
		&sale.DebtAmount,
		&sale.PaymentMethod,
		&sale.SoldBy,
		&sale.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, name, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = $1`, saleID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	items := make([]*models.SaleItem, 0)
	for rows.Next() {
		item := &models.SaleItem{}
		err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.Subtotal)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	return sale, items, rows.Err()
}

// ListSales retrieves a paginated list of sales, newest first.
func (r *SaleRepository) ListSales(ctx context.Context, limit, offset int) ([]*models.Sale, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + saleSelectColumns + ` FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales := make([]*models.Sale, 0)
	for rows.Next() {
		sale := &models.Sale{}
		err := rows.Scan(
			&sale.ID,
			&sale.InvoiceNumber,
			&sale.CustomerID,
			&sale.CustomerName,
			&sale.TotalAmount,
			&sale.PaidAmount,
			&sale.DebtAmount,
			&sale.PaymentMethod,
			&sale.SoldBy,
			&sale.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}

	return sales, total, rows.Err()
}

// NextInvoiceNumber issues the next sequential invoice number.
func (r *SaleRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", n), nil
}
