package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a buyer. Balance is the customer's running account balance:
// negative means the customer owes the store money.
type Customer struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Phone     *string         `db:"phone" json:"phone"`
	Address   *string         `db:"address" json:"address"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}
