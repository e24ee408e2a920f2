package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at the POS.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)

// Sale represents one completed POS sale. When PaidAmount < TotalAmount the
// difference becomes a Debt row created in the same transaction.
type Sale struct {
	ID            string          `db:"id" json:"id"`
	InvoiceNumber string          `db:"invoice_number" json:"invoiceNumber"`
	CustomerID    *string         `db:"customer_id" json:"customerId"`
	CustomerName  *string         `db:"customer_name" json:"customerName"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	PaidAmount    decimal.Decimal `db:"paid_amount" json:"paidAmount"`
	DebtAmount    decimal.Decimal `db:"debt_amount" json:"debtAmount"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	SoldBy        *string         `db:"sold_by" json:"soldBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID        string          `db:"id" json:"id"`
	SaleID    string          `db:"sale_id" json:"saleId"`
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
}
