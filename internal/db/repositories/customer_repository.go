// customer_repository.go implements CustomerRepository for customer records and
// their running debt balance.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerSelectColumns = `id, name, phone, address, balance, created_at, updated_at`

// CreateCustomer creates a new customer
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New().String()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	query := `
		INSERT INTO customers (id, name, phone, address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Address,
		customer.Balance,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	return err
}

// GetCustomer retrieves a customer by ID
func (r *CustomerRepository) GetCustomer(ctx context.Context, customerID string) (*models.Customer, error) {
	query := `SELECT ` + customerSelectColumns + ` FROM customers WHERE id = $1`

	customer := &models.Customer{}
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Address,
		&customer.Balance,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return customer, nil
}

// UpdateCustomer updates a customer's information
func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now()

	query := `
		UPDATE customers
		SET name = $2, phone = $3, address = $4, balance = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Address,
		customer.Balance,
		customer.UpdatedAt,
	)

	return err
}

// AdjustBalance moves a customer's balance by delta and returns the new value.
func (r *CustomerRepository) AdjustBalance(ctx context.Context, customerID string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE customers
		SET balance = balance + $2, updated_at = $3
		WHERE id = $1
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, customerID, delta, time.Now()).Scan(&balance)
	return balance, err
}

// DeleteCustomer deletes a customer
func (r *CustomerRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	query := `DELETE FROM customers WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, customerID)
	return err
}

// ListCustomers retrieves a paginated list of customers, optionally filtered by
// a name or phone search.
func (r *CustomerRepository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]*models.Customer, int, error) {
	countQuery := `SELECT COUNT(*) FROM customers`
	query := `SELECT ` + customerSelectColumns + ` FROM customers`

	args := make([]interface{}, 0)
	if search != "" {
		countQuery += ` WHERE name ILIKE $1 OR phone ILIKE $1`
		query += ` WHERE name ILIKE $1 OR phone ILIKE $1`
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

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		customer := &models.Customer{}
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Phone,
			&customer.Address,
			&customer.Balance,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, customer)
	}

	return customers, total, rows.Err()
}
