package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a stock item. Quantity is tracked in whole units; every
// change to it is mirrored by a StockMovement row.
type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	SKU       string          `db:"sku" json:"sku"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	Unit      string          `db:"unit" json:"unit"` // "dona", "metr", "kv.metr"
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// StockMovement records one quantity change of one product.
type StockMovement struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"productId"`
	SaleID    *string   `db:"sale_id" json:"saleId"`
	Delta     int64     `db:"delta" json:"delta"` // negative for sales
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
