package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt statuses.
const (
	DebtStatusActive = "ACTIVE"
	DebtStatusPaid   = "PAID"
)

// Debt represents an outstanding balance a customer owes for a sale.
// RemainingAmount decreases with each payment; status flips to PAID when it
// reaches zero.
type Debt struct {
	ID              string          `db:"id" json:"id"`
	CustomerID      string          `db:"customer_id" json:"customerId"`
	SaleID          *string         `db:"sale_id" json:"saleId"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remainingAmount"`
	Status          string          `db:"status" json:"status"`
	DueDate         *time.Time      `db:"due_date" json:"dueDate"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// Payment represents one payment made against a debt.
type Payment struct {
	ID         string          `db:"id" json:"id"`
	DebtID     string          `db:"debt_id" json:"debtId"`
	CustomerID string          `db:"customer_id" json:"customerId"`
	SaleID     *string         `db:"sale_id" json:"saleId"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Method     string          `db:"method" json:"method"`
	ReceivedBy *string         `db:"received_by" json:"receivedBy"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
