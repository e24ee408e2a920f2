package admin

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func productColumns() []string {
	return []string{"id", "name", "sku", "price", "quantity", "unit", "created_at", "updated_at"}
}

func newProductRouter(db *sqlmockDB, rec *stubRecorder) *gin.Engine {
	router := gin.New()
	h := NewProductHandlers(db.db, rec)
	grp := router.Group("/products", asUser("user-1", "aziza"))
	grp.GET("", h.ListHandler())
	grp.GET("/:id", h.GetHandler())
	grp.GET("/:id/movements", h.MovementsHandler())
	grp.POST("", h.CreateHandler())
	grp.PUT("/:id", h.UpdateHandler())
	grp.DELETE("/:id", h.DeleteHandler())
	return router
}

func TestProductCreate_RecordsAudit(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	db.mock.ExpectExec("INSERT INTO products").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{}
	router := newProductRouter(db, rec)

	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"name": "Jalyuzi Premium", "sku": "JP-100", "price": "250000", "quantity": 10, "unit": "dona"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if got, want := mutationTypes(rec.mutations), []string{"Product:CREATE"}; !reflect.DeepEqual(got, want) {
		t.Errorf("mutations = %v, want %v", got, want)
	}
}

func TestProductCreate_NegativePrice(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	rec := &stubRecorder{}
	router := newProductRouter(db, rec)

	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"name": "X", "sku": "X-1", "price": "-5", "quantity": 1, "unit": "dona"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if rec.calls != 0 {
		t.Error("rejected request must not be audited")
	}
}

func TestProductUpdate_RecordsBeforeAndAfter(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	now := time.Now()
	db.mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("prod-1").
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow("prod-1", "Jalyuzi Premium", "JP-100", "250000", 10, "dona", now, now))
	db.mock.ExpectExec("UPDATE products").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{}
	router := newProductRouter(db, rec)

	req := httptest.NewRequest(http.MethodPut, "/products/prod-1",
		strings.NewReader(`{"name": "Jalyuzi Premium", "sku": "JP-100", "price": "275000", "quantity": 10, "unit": "dona"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got, want := mutationTypes(rec.mutations), []string{"Product:UPDATE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("mutations = %v, want %v", got, want)
	}
	if rec.mutations[0].Old == nil || rec.mutations[0].New == nil {
		t.Error("UPDATE mutation must carry both snapshots")
	}
}

func TestProductDelete_NotFound(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	db.mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WillReturnRows(sqlmock.NewRows(productColumns()))

	rec := &stubRecorder{}
	router := newProductRouter(db, rec)

	req := httptest.NewRequest(http.MethodDelete, "/products/yoq", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if rec.calls != 0 {
		t.Error("missing product must not be audited")
	}
}

func TestProductMovements(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	now := time.Now()
	db.mock.ExpectQuery("SELECT (.+) FROM stock_movements").
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "sale_id", "delta", "reason", "created_at"}).
			AddRow("mov-1", "prod-1", nil, -2, "SALE", now))

	router := newProductRouter(db, &stubRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/products/prod-1/movements", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"delta":-2`) {
		t.Errorf("body missing movement: %s", w.Body.String())
	}
}
