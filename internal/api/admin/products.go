// products.go implements product CRUD and the stock movement history. Every
// mutation is audited with before/after snapshots.
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
)

// ProductHandlers handles product management endpoints.
type ProductHandlers struct {
	products *repositories.ProductRepository
	recorder Recorder
}

// NewProductHandlers creates a new ProductHandlers instance.
func NewProductHandlers(db *sql.DB, recorder Recorder) *ProductHandlers {
	return &ProductHandlers{
		products: repositories.NewProductRepository(db),
		recorder: recorder,
	}
}

type productRequest struct {
	Name     string          `json:"name" binding:"required"`
	SKU      string          `json:"sku" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Unit     string          `json:"unit" binding:"required"`
}

// ListHandler lists products with optional name/SKU search.
// GET /api/v1/products?page&size&search
func (h *ProductHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)
		search := c.Query("search")

		products, total, err := h.products.ListProducts(c.Request.Context(), search, size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotlarni yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", envelope.NewPage(products, page, size, int64(total)))
	}
}

// GetHandler returns one product.
// GET /api/v1/products/:id
func (h *ProductHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni yuklab bo'lmadi")
			return
		}
		if product == nil {
			envelope.Error(c, http.StatusNotFound, "Mahsulot topilmadi")
			return
		}

		envelope.OK(c, "OK", product)
	}
}

// MovementsHandler lists the stock movement history of one product.
// GET /api/v1/products/:id/movements?page&size
func (h *ProductHandlers) MovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)

		movements, err := h.products.ListStockMovements(c.Request.Context(), c.Param("id"), size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Ombor harakatlarini yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", movements)
	}
}

// CreateHandler creates a product.
// POST /api/v1/products
func (h *ProductHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "name, sku and unit are required")
			return
		}
		if req.Quantity < 0 || req.Price.IsNegative() {
			envelope.Error(c, http.StatusBadRequest, "price and quantity must not be negative")
			return
		}

		product := &models.Product{
			Name:     req.Name,
			SKU:      req.SKU,
			Price:    req.Price,
			Quantity: req.Quantity,
			Unit:     req.Unit,
		}
		if err := h.products.CreateProduct(c.Request.Context(), product); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni saqlab bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Product",
			EntityID:   product.ID,
			Action:     models.ActionCreate,
			New:        product,
		})

		envelope.Created(c, "Mahsulot qo'shildi", product)
	}
}

// UpdateHandler updates a product.
// PUT /api/v1/products/:id
func (h *ProductHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "name, sku and unit are required")
			return
		}
		if req.Quantity < 0 || req.Price.IsNegative() {
			envelope.Error(c, http.StatusBadRequest, "price and quantity must not be negative")
			return
		}

		before, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni yuklab bo'lmadi")
			return
		}
		if before == nil {
			envelope.Error(c, http.StatusNotFound, "Mahsulot topilmadi")
			return
		}

		after := *before
		after.Name = req.Name
		after.SKU = req.SKU
		after.Price = req.Price
		after.Quantity = req.Quantity
		after.Unit = req.Unit

		if err := h.products.UpdateProduct(c.Request.Context(), &after); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni saqlab bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Product",
			EntityID:   after.ID,
			Action:     models.ActionUpdate,
			Old:        before,
			New:        &after,
		})

		envelope.OK(c, "Mahsulot yangilandi", &after)
	}
}

// DeleteHandler removes a product.
// DELETE /api/v1/products/:id
func (h *ProductHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		before, err := h.products.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni yuklab bo'lmadi")
			return
		}
		if before == nil {
			envelope.Error(c, http.StatusNotFound, "Mahsulot topilmadi")
			return
		}

		if err := h.products.DeleteProduct(c.Request.Context(), before.ID); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mahsulotni o'chirib bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Product",
			EntityID:   before.ID,
			Action:     models.ActionDelete,
			Old:        before,
		})

		envelope.OK(c, "Mahsulot o'chirildi", nil)
	}
}
