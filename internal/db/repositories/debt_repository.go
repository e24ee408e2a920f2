// debt_repository.go implements DebtRepository. Recording a payment is one
// transaction covering the payment row, the debt decrement (flipping status to
// PAID at zero), and the customer balance credit. The before and after
// snapshots of every touched row are returned so the caller can audit them.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// Payment rejection reasons, distinguishable from infrastructure failures.
var (
	ErrDebtNotFound       = errors.New("debt not found")
	ErrDebtSettled        = errors.New("debt is already settled")
	ErrNonPositivePayment = errors.New("payment amount must be positive")
	ErrPaymentExceedsDebt = errors.New("payment exceeds remaining debt")
)

// DebtRepository handles debt and payment database operations
type DebtRepository struct {
	db *sql.DB
}

// NewDebtRepository creates a new DebtRepository
func NewDebtRepository(db *sql.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

const debtSelectColumns = `id, customer_id, sale_id, total_amount, remaining_amount,
		status, due_date, created_at, updated_at`

// PaymentResult is everything a payment transaction produced.
type PaymentResult struct {
	Payment        *models.Payment
	DebtBefore     *models.Debt
	DebtAfter      *models.Debt
	CustomerBefore *models.Customer
	CustomerAfter  *models.Customer
}

// RecordPayment applies a payment to a debt atomically. Payments exceeding the
// remaining amount or against a settled debt are rejected.
func (r *DebtRepository) RecordPayment(ctx context.Context, debtID string, amount decimal.Decimal, method string, receivedBy *string) (*PaymentResult, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositivePayment
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now()

	debtBefore := &models.Debt{}
	err = tx.QueryRowContext(ctx,
		`SELECT `+debtSelectColumns+` FROM debts WHERE id = $1 FOR UPDATE`, debtID).Scan(
		&debtBefore.ID,
		&debtBefore.CustomerID,
		&debtBefore.SaleID,
		&debtBefore.TotalAmount,
		&debtBefore.RemainingAmount,
		&debtBefore.Status,
		&debtBefore.DueDate,
		&debtBefore.CreatedAt,
		&debtBefore.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt %s: %w", debtID, ErrDebtNotFound)
	}
	if err != nil {
		return nil, err
	}

	if debtBefore.Status == models.DebtStatusPaid {
		return nil, fmt.Errorf("debt %s: %w", debtID, ErrDebtSettled)
	}
	if amount.GreaterThan(debtBefore.RemainingAmount) {
		return nil, fmt.Errorf("payment %s against remaining %s: %w",
			amount.String(), debtBefore.RemainingAmount.String(), ErrPaymentExceedsDebt)
	}

	remaining := debtBefore.RemainingAmount.Sub(amount)
	status := models.DebtStatusActive
	if remaining.IsZero() {
		status = models.DebtStatusPaid
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE debts SET remaining_amount = $2, status = $3, updated_at = $4 WHERE id = $1`,
		debtID, remaining, status, now,
	)
	if err != nil {
		return nil, err
	}

	debtAfter := *debtBefore
	debtAfter.RemainingAmount = remaining
	debtAfter.Status = status
	debtAfter.UpdatedAt = now

	payment := &models.Payment{
		ID:         uuid.New().String(),
		DebtID:     debtID,
		CustomerID: debtBefore.CustomerID,
		SaleID:     debtBefore.SaleID,
		Amount:     amount,
		Method:     method,
		ReceivedBy: receivedBy,
		CreatedAt:  now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, debt_id, customer_id, sale_id, amount, method, received_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		payment.ID, payment.DebtID, payment.CustomerID, payment.SaleID,
		payment.Amount, payment.Method, payment.ReceivedBy, payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	customerBefore := &models.Customer{}
	err = tx.QueryRowContext(ctx,
		`SELECT `+customerSelectColumns+` FROM customers WHERE id = $1 FOR UPDATE`,
		debtBefore.CustomerID).Scan(
		&customerBefore.ID,
		&customerBefore.Name,
		&customerBefore.Phone,
		&customerBefore.Address,
		&customerBefore.Balance,
		&customerBefore.CreatedAt,
		&customerBefore.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE customers SET balance = balance + $2, updated_at = $3 WHERE id = $1`,
		debtBefore.CustomerID, amount, now,
	)
	if err != nil {
		return nil, err
	}

	customerAfter := *customerBefore
	customerAfter.Balance = customerBefore.Balance.Add(amount)
	customerAfter.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &PaymentResult{
		Payment:        payment,
		DebtBefore:     debtBefore,
		DebtAfter:      &debtAfter,
		CustomerBefore: customerBefore,
		CustomerAfter:  &customerAfter,
	}, nil
}

// GetDebt retrieves a debt by ID
func (r *DebtRepository) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	query := `SELECT ` + debtSelectColumns + ` FROM debts WHERE id = $1`

	debt := &models.Debt{}
	err := r.db.QueryRowContext(ctx, query, debtID).Scan(
		&debt.ID,
		&debt.CustomerID,
		&debt.SaleID,
		&debt.TotalAmount,
		&debt.RemainingAmount,
		&debt.Status,
		&debt.DueDate,
		&debt.CreatedAt,
		&debt.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return debt, nil
}

// ListDebts retrieves a paginated list of debts, optionally filtered by status
// and customer.
func (r *DebtRepository) ListDebts(ctx context.Context, status, customerID *string, limit, offset int) ([]*models.Debt, int, error) {
	countQuery := `SELECT COUNT(*) FROM debts WHERE 1=1`
	query := `SELECT ` + debtSelectColumns + ` FROM debts WHERE 1=1`

	args := make([]interface{}, 0)
	paramIndex := 1

	if status != nil {
		clause := fmt.Sprintf(` AND status = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *status)
		paramIndex++
	}

	if customerID != nil {
		clause := fmt.Sprintf(` AND customer_id = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *customerID)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	debts := make([]*models.Debt, 0)
	for rows.Next() {
		debt := &models.Debt{}
		err := rows.Scan(
			&debt.ID,
			&debt.CustomerID,
			&debt.SaleID,
			&debt.TotalAmount,
			&debt.RemainingAmount,
			&debt.Status,
			&debt.DueDate,
			&debt.CreatedAt,
			&debt.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		debts = append(debts, debt)
	}

	return debts, total, rows.Err()
}

// ListPayments retrieves the payments made against one debt, newest first.
func (r *DebtRepository) ListPayments(ctx context.Context, debtID string) ([]*models.Payment, error) {
	query := `
		SELECT id, debt_id, customer_id, sale_id, amount, method, received_by, created_at
		FROM payments
		WHERE debt_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		p := &models.Payment{}
		err := rows.Scan(&p.ID, &p.DebtID, &p.CustomerID, &p.SaleID,
			&p.Amount, &p.Method, &p.ReceivedBy, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}
