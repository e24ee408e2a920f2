// sales.go implements the POS sale endpoints. A completed sale is captured to
// the audit trail as one correlated group: the sale row, its line items, the
// stock movements, the product quantity changes, and the debt row when the
// sale is not fully paid.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/middleware"
)

// SaleHandlers handles sale endpoints.
type SaleHandlers struct {
	sales    *repositories.SaleRepository
	recorder Recorder
}

// NewSaleHandlers creates a new SaleHandlers instance.
func NewSaleHandlers(db *sql.DB, recorder Recorder) *SaleHandlers {
	return &SaleHandlers{
		sales:    repositories.NewSaleRepository(db),
		recorder: recorder,
	}
}

type saleItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type saleRequest struct {
	CustomerID    *string           `json:"customerId"`
	CustomerName  *string           `json:"customerName"`
	Items         []saleItemRequest `json:"items" binding:"required"`
	PaidAmount    decimal.Decimal   `json:"paidAmount"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
}

func validPaymentMethod(m string) bool {
	switch m {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodTransfer:
		return true
	}
	return false
}

// CreateHandler completes a sale: stock is decremented per item and the unpaid
// remainder becomes a debt, all in one transaction.
// POST /api/v1/sales
func (h *SaleHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "items and paymentMethod are required")
			return
		}
		if len(req.Items) == 0 {
			envelope.Error(c, http.StatusBadRequest, "sale must contain at least one item")
			return
		}
		if !validPaymentMethod(req.PaymentMethod) {
			envelope.Error(c, http.StatusBadRequest, "paymentMethod must be CASH, CARD or TRANSFER")
			return
		}

		total := decimal.Zero
		items := make([]*models.SaleItem, 0, len(req.Items))
		for _, it := range req.Items {
			if it.Quantity <= 0 {
				envelope.Error(c, http.StatusBadRequest, "item quantity must be positive")
				return
			}
			if it.UnitPrice.IsNegative() {
				envelope.Error(c, http.StatusBadRequest, "item unitPrice must not be negative")
				return
			}
			subtotal := it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
			total = total.Add(subtotal)
			items = append(items, &models.SaleItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				Subtotal:  subtotal,
			})
		}

		if req.PaidAmount.IsNegative() || req.PaidAmount.GreaterThan(total) {
			envelope.Error(c, http.StatusBadRequest, "paidAmount must be between 0 and the sale total")
			return
		}
		debtAmount := total.Sub(req.PaidAmount)
		if debtAmount.IsPositive() && req.CustomerID == nil {
			envelope.Error(c, http.StatusBadRequest, "sale with debt requires a customer")
			return
		}

		invoice, err := h.sales.NextInvoiceNumber(c.Request.Context())
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Sotuvni saqlab bo'lmadi")
			return
		}

		soldBy := c.GetString(middleware.UsernameKey)
		sale := &models.Sale{
			InvoiceNumber: invoice,
			CustomerID:    req.CustomerID,
			CustomerName:  req.CustomerName,
			TotalAmount:   total,
			PaidAmount:    req.PaidAmount,
			DebtAmount:    debtAmount,
			PaymentMethod: req.PaymentMethod,
		}
		if soldBy != "" {
			sale.SoldBy = &soldBy
		}

		result, err := h.sales.CreateSale(c.Request.Context(), sale, items)
		if err != nil {
			envelope.Error(c, http.StatusUnprocessableEntity, "Sotuvni saqlab bo'lmadi: "+err.Error())
			return
		}

		recordMutations(c, h.recorder, saleMutations(result)...)

		envelope.Created(c, "Sotuv saqlandi", result.Sale)
	}
}

// saleMutations flattens a completed sale transaction into audit mutations.
func saleMutations(result *repositories.SaleResult) []audit.Mutation {
	mutations := []audit.Mutation{{
		EntityType: "Sale",
		EntityID:   result.Sale.ID,
		Action:     models.ActionCreate,
		New:        result.Sale,
	}}
	for _, item := range result.Items {
		mutations = append(mutations, audit.Mutation{
			EntityType: "SaleItem",
			EntityID:   item.ID,
			Action:     models.ActionCreate,
			New:        item,
		})
	}
	for _, change := range result.Products {
		mutations = append(mutations, audit.Mutation{
			EntityType: "Product",
			EntityID:   change.After.ID,
			Action:     models.ActionUpdate,
			Old:        change.Before,
			New:        change.After,
		})
	}
	for _, movement := range result.Movements {
		mutations = append(mutations, audit.Mutation{
			EntityType: "StockMovement",
			EntityID:   movement.ID,
			Action:     models.ActionCreate,
			New:        movement,
		})
	}
	if result.Debt != nil {
		mutations = append(mutations, audit.Mutation{
			EntityType: "Debt",
			EntityID:   result.Debt.ID,
			Action:     models.ActionCreate,
			New:        result.Debt,
		})
	}
	return mutations
}

// ListHandler lists sales, newest first.
// GET /api/v1/sales?page&size
func (h *SaleHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)

		sales, total, err := h.sales.ListSales(c.Request.Context(), size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Sotuvlarni yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", envelope.NewPage(sales, page, size, int64(total)))
	}
}

// GetHandler returns one sale with its line items.
// GET /api/v1/sales/:id
func (h *SaleHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sale, items, err := h.sales.GetSale(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Sotuvni yuklab bo'lmadi")
			return
		}
		if sale == nil {
			envelope.Error(c, http.StatusNotFound, "Sotuv topilmadi")
			return
		}

		envelope.OK(c, "OK", gin.H{"sale": sale, "items": items})
	}
}
