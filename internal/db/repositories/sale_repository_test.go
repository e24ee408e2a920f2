package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var saleCols = []string{
	"id", "invoice_number", "customer_id", "customer_name", "total_amount",
	"paid_amount", "debt_amount", "payment_method", "sold_by", "created_at",
}

var saleItemCols = []string{
	"id", "sale_id", "product_id", "name", "quantity", "unit_price", "subtotal",
}

var productCols = []string{
	"id", "name", "sku", "price", "quantity", "unit", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newSaleRepo(t *testing.T) (*SaleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSaleRepository(db), mock
}

func productRow(quantity int64) *sqlmock.Rows {
	return sqlmock.NewRows(productCols).
		AddRow("product-1", "Jalyuzi oq 120x160", "JAL-120", "350000", quantity, "dona",
			time.Now(), time.Now())
}

func cashSale() *models.Sale {
	return &models.Sale{
		InvoiceNumber: "INV-000001",
		TotalAmount:   decimal.NewFromInt(350000),
		PaidAmount:    decimal.NewFromInt(350000),
		DebtAmount:    decimal.Zero,
		PaymentMethod: models.PaymentMethodCash,
	}
}

func saleItems() []*models.SaleItem {
	return []*models.SaleItem{{
		ProductID: "product-1",
		Name:      "Jalyuzi oq 120x160",
		Quantity:  1,
		UnitPrice: decimal.NewFromInt(350000),
		Subtotal:  decimal.NewFromInt(350000),
	}}
}

// ---------------------------------------------------------------------------
// CreateSale
// ---------------------------------------------------------------------------

func TestCreateSale_CashOnly(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id.*FROM products.*FOR UPDATE").WillReturnRows(productRow(5))
	mock.ExpectExec("UPDATE products SET quantity").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stock_movements").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := repo.CreateSale(context.Background(), cashSale(), saleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Debt != nil {
		t.Error("cash sale should not create a debt")
	}
	if len(result.Movements) != 1 {
		t.Errorf("len(Movements) = %d, want 1", len(result.Movements))
	}
	if result.Movements[0].Delta != -1 {
		t.Errorf("Delta = %d, want -1", result.Movements[0].Delta)
	}
	if len(result.Products) != 1 {
		t.Fatalf("len(Products) = %d, want 1", len(result.Products))
	}
	if result.Products[0].After.Quantity != 4 {
		t.Errorf("After.Quantity = %d, want 4", result.Products[0].After.Quantity)
	}
}

func TestCreateSale_WithDebt(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id.*FROM products.*FOR UPDATE").WillReturnRows(productRow(5))
	mock.ExpectExec("UPDATE products SET quantity").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stock_movements").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO debts").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE customers SET balance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sale := cashSale()
	sale.CustomerID = strPtr("customer-1")
	sale.PaidAmount = decimal.NewFromInt(150000)
	sale.DebtAmount = decimal.NewFromInt(200000)

	result, err := repo.CreateSale(context.Background(), sale, saleItems())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Debt == nil {
		t.Fatal("expected debt, got nil")
	}
	if !result.Debt.RemainingAmount.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("RemainingAmount = %s, want 200000", result.Debt.RemainingAmount)
	}
	if result.Debt.Status != models.DebtStatusActive {
		t.Errorf("Status = %q, want %q", result.Debt.Status, models.DebtStatusActive)
	}
}

func TestCreateSale_DebtWithoutCustomer(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id.*FROM products.*FOR UPDATE").WillReturnRows(productRow(5))
	mock.ExpectExec("UPDATE products SET quantity").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stock_movements").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	sale := cashSale()
	sale.DebtAmount = decimal.NewFromInt(200000)

	_, err := repo.CreateSale(context.Background(), sale, saleItems())
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sales").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO sale_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id.*FROM products.*FOR UPDATE").WillReturnRows(productRow(0))
	mock.ExpectRollback()

	_, err := repo.CreateSale(context.Background(), cashSale(), saleItems())
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCreateSale_BeginError(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectBegin().WillReturnError(errDB)

	_, err := repo.CreateSale(context.Background(), cashSale(), saleItems())
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetSale
// ---------------------------------------------------------------------------

func TestGetSale_Found(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectQuery("SELECT id.*FROM sales.*WHERE id").
		WillReturnRows(sqlmock.NewRows(saleCols).
			AddRow("sale-1", "INV-000001", "customer-1", "Aziz Karimov", "350000",
				"150000", "200000", "CASH", "admin", time.Now()))
	mock.ExpectQuery("SELECT id.*FROM sale_items").
		WillReturnRows(sqlmock.NewRows(saleItemCols).
			AddRow("item-1", "sale-1", "product-1", "Jalyuzi oq 120x160", 1, "350000", "350000"))

	sale, items, err := repo.GetSale(context.Background(), "sale-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sale == nil {
		t.Fatal("expected sale, got nil")
	}
	if sale.InvoiceNumber != "INV-000001" {
		t.Errorf("InvoiceNumber = %q, want %q", sale.InvoiceNumber, "INV-000001")
	}
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
}

func TestGetSale_NotFound(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectQuery("SELECT id.*FROM sales.*WHERE id").
		WillReturnRows(sqlmock.NewRows(saleCols))

	sale, items, err := repo.GetSale(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sale != nil || items != nil {
		t.Error("expected nils for missing sale")
	}
}

// ---------------------------------------------------------------------------
// ListSales
// ---------------------------------------------------------------------------

func TestListSales_Success(t *testing.T) {
	repo, mock := newSaleRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM sales").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id.*FROM sales").
		WillReturnRows(sqlmock.NewRows(saleCols).
			AddRow("sale-1", "INV-000001", nil, nil, "350000",
				"350000", "0", "CASH", nil, time.Now()))

	sales, total, err := repo.ListSales(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(sales) != 1 {
		t.Errorf("len(sales) = %d, want 1", len(sales))
	}
}
