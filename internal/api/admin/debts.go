// debts.go implements debt listing and payment recording. A recorded payment
// is captured to the audit trail as one correlated group: the payment row, the
// debt decrement, and the customer balance credit, each with before/after
// snapshots.
package admin

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/middleware"
)

// DebtHandlers handles debt and payment endpoints.
type DebtHandlers struct {
	debts    *repositories.DebtRepository
	recorder Recorder
}

// NewDebtHandlers creates a new DebtHandlers instance.
func NewDebtHandlers(db *sql.DB, recorder Recorder) *DebtHandlers {
	return &DebtHandlers{
		debts:    repositories.NewDebtRepository(db),
		recorder: recorder,
	}
}

// ListHandler lists debts with optional status and customer filters.
// GET /api/v1/debts?page&size&status&customerId
func (h *DebtHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := parsePaging(c)

		var status, customerID *string
		if v := c.Query("status"); v != "" {
			status = &v
		}
		if v := c.Query("customerId"); v != "" {
			customerID = &v
		}

		debts, total, err := h.debts.ListDebts(c.Request.Context(), status, customerID, size, page*size)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Qarzlarni yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", envelope.NewPage(debts, page, size, int64(total)))
	}
}

// GetHandler returns one debt with its payment history.
// GET /api/v1/debts/:id
func (h *DebtHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		debt, err := h.debts.GetDebt(c.Request.Context(), c.Param("id"))
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Qarzni yuklab bo'lmadi")
			return
		}
		if debt == nil {
			envelope.Error(c, http.StatusNotFound, "Qarz topilmadi")
			return
		}

		payments, err := h.debts.ListPayments(c.Request.Context(), debt.ID)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "To'lovlarni yuklab bo'lmadi")
			return
		}

		envelope.OK(c, "OK", gin.H{"debt": debt, "payments": payments})
	}
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method"`
}

// CreatePaymentHandler records a payment against a debt.
// POST /api/v1/debts/:id/payments
func (h *DebtHandlers) CreatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "amount is required")
			return
		}

		method := req.Method
		if method == "" {
			method = models.PaymentMethodCash
		}
		if !validPaymentMethod(method) {
			envelope.Error(c, http.StatusBadRequest, "method must be CASH, CARD or TRANSFER")
			return
		}

		var receivedBy *string
		if username := c.GetString(middleware.UsernameKey); username != "" {
			receivedBy = &username
		}

		result, err := h.debts.RecordPayment(c.Request.Context(), c.Param("id"), req.Amount, method, receivedBy)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrDebtNotFound):
				envelope.Error(c, http.StatusNotFound, "Qarz topilmadi")
			case errors.Is(err, repositories.ErrDebtSettled):
				envelope.Error(c, http.StatusBadRequest, "Qarz allaqachon to'langan")
			case errors.Is(err, repositories.ErrPaymentExceedsDebt):
				envelope.Error(c, http.StatusBadRequest, "To'lov qarz qoldig'idan oshib ketdi")
			case errors.Is(err, repositories.ErrNonPositivePayment):
				envelope.Error(c, http.StatusBadRequest, "To'lov summasi musbat bo'lishi kerak")
			default:
				envelope.Error(c, http.StatusInternalServerError, "To'lovni saqlab bo'lmadi")
			}
			return
		}

		recordMutations(c, h.recorder,
			audit.Mutation{
				EntityType: "Payment",
				EntityID:   result.Payment.ID,
				Action:     models.ActionCreate,
				New:        result.Payment,
			},
			audit.Mutation{
				EntityType: "Debt",
				EntityID:   result.DebtAfter.ID,
				Action:     models.ActionUpdate,
				Old:        result.DebtBefore,
				New:        result.DebtAfter,
			},
			audit.Mutation{
				EntityType: "Customer",
				EntityID:   result.CustomerAfter.ID,
				Action:     models.ActionUpdate,
				Old:        result.CustomerBefore,
				New:        result.CustomerAfter,
			},
		)

		envelope.Created(c, "To'lov saqlandi", gin.H{
			"payment": result.Payment,
			"debt":    result.DebtAfter,
		})
	}
}
