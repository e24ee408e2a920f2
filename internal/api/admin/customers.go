// customers.go implements customer CRUD. Every mutation is audited with
// before/after snapshots.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
)

// CustomerHandlers handles customer management endpoints.
type CustomerHandlers struct {
	customers *repositories.CustomerRepository
	recorder  Recorder
}

// NewCustomerHandlers creates a new CustomerHandlers instance.
func NewCustomerHandlers(db *sql.DB, recorder Recorder) *CustomerHandlers {
	return &CustomerHandlers{
		customers: repositories.NewCustomerRepository(db),
		recorder:  recorder,
	}
}

type customerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// ListHandler lists customers with optional name/phone search.
// GET /api/v1/customers?page&size&search
func (h *CustomerHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)
		search := c.Query("search")

		customers, total, err := h.customers.ListCustomers(c.Request.Context(), search, size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozlarni yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", envelope.NewPage(customers, page, size, int64(total)))
	}
}

// GetHandler returns one customer.
// GET /api/v1/customers/:id
func (h *CustomerHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := h.customers.GetCustomer(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni yuklab bo'lmadi")
			return
		}
		if customer == nil {
			envelope.Error(c, http.StatusNotFound, "Mijoz topilmadi")
			return
		}

		envelope.OK(c, "OK", customer)
	}
}

// CreateHandler creates a customer.
// POST /api/v1/customers
func (h *CustomerHandlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "name is required")
			return
		}

		customer := &models.Customer{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
		}
		if err := h.customers.CreateCustomer(c.Request.Context(), customer); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni saqlab bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Customer",
			EntityID:   customer.ID,
			Action:     models.ActionCreate,
			New:        customer,
		})

		envelope.Created(c, "Mijoz qo'shildi", customer)
	}
}

// UpdateHandler updates a customer's contact details.
// PUT /api/v1/customers/:id
func (h *CustomerHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "name is required")
			return
		}

		before, err := h.customers.GetCustomer(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni yuklab bo'lmadi")
			return
		}
		if before == nil {
			envelope.Error(c, http.StatusNotFound, "Mijoz topilmadi")
			return
		}

		after := *before
		after.Name = req.Name
		after.Phone = req.Phone
		after.Address = req.Address

		if err := h.customers.UpdateCustomer(c.Request.Context(), &after); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni saqlab bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Customer",
			EntityID:   after.ID,
			Action:     models.ActionUpdate,
			Old:        before,
			New:        &after,
		})

		envelope.OK(c, "Mijoz yangilandi", &after)
	}
}

// DeleteHandler removes a customer.
// DELETE /api/v1/customers/:id
func (h *CustomerHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		before, err := h.customers.GetCustomer(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni yuklab bo'lmadi")
			return
		}
		if before == nil {
			envelope.Error(c, http.StatusNotFound, "Mijoz topilmadi")
			return
		}

		if err := h.customers.DeleteCustomer(c.Request.Context(), before.ID); err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Mijozni o'chirib bo'lmadi")
			return
		}

		recordMutations(c, h.recorder, audit.Mutation{
			EntityType: "Customer",
			EntityID:   before.ID,
			Action:     models.ActionDelete,
			Old:        before,
		})

		envelope.OK(c, "Mijoz o'chirildi", nil)
	}
}
