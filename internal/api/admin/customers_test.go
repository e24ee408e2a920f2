package admin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func customerColumns() []string {
	return []string{"id", "name", "phone", "address", "balance", "created_at", "updated_at"}
}

func newCustomerRouter(db *sqlmockDB, rec *stubRecorder) *gin.Engine {
	router := gin.New()
	h := NewCustomerHandlers(db.db, rec)
	grp := router.Group("/customers", asUser("user-1", "aziza"))
	grp.GET("", h.ListHandler())
	grp.GET("/:id", h.GetHandler())
	grp.POST("", h.CreateHandler())
	grp.PUT("/:id", h.UpdateHandler())
	grp.DELETE("/:id", h.DeleteHandler())
	return router
}

func TestCustomerCreate_RecordsAudit(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	db.mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"name": "Olim aka", "phone": "+998901234567"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if got, want := mutationTypes(rec.mutations), []string{"Customer:CREATE"}; !reflect.DeepEqual(got, want) {
		t.Errorf("mutations = %v, want %v", got, want)
	}
	if rec.actor.UserID != "user-1" || rec.actor.Username != "aziza" {
		t.Errorf("actor = %+v, want user-1/aziza", rec.actor)
	}
	if rec.mutations[0].Old != nil {
		t.Error("CREATE mutation should have no old snapshot")
	}
}

func TestCustomerCreate_AuditFailureDoesNotFailRequest(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	db.mock.ExpectExec("INSERT INTO customers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{err: errors.New("audit store down")}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"name": "Olim aka"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 despite audit failure: %s", w.Code, w.Body.String())
	}
	if rec.calls != 1 {
		t.Errorf("recorder calls = %d, want 1", rec.calls)
	}
}

func TestCustomerCreate_MissingName(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	rec := &stubRecorder{}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"phone": "+998"}`))
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

func TestCustomerUpdate_RecordsBeforeAndAfter(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	now := time.Now()
	db.mock.ExpectQuery("SELECT (.+) FROM customers WHERE id").
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow("cust-1", "Olim aka", nil, nil, "0", now, now))
	db.mock.ExpectExec("UPDATE customers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodPut, "/customers/cust-1",
		strings.NewReader(`{"name": "Olim Karimov"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got, want := mutationTypes(rec.mutations), []string{"Customer:UPDATE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("mutations = %v, want %v", got, want)
	}
	if rec.mutations[0].Old == nil || rec.mutations[0].New == nil {
		t.Error("UPDATE mutation must carry both snapshots")
	}
}

func TestCustomerUpdate_NotFound(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	db.mock.ExpectQuery("SELECT (.+) FROM customers WHERE id").
		WillReturnRows(sqlmock.NewRows(customerColumns()))

	rec := &stubRecorder{}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodPut, "/customers/yoq",
		strings.NewReader(`{"name": "X"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if rec.calls != 0 {
		t.Error("missing customer must not be audited")
	}
}

func TestCustomerDelete_RecordsOldSnapshot(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	now := time.Now()
	db.mock.ExpectQuery("SELECT (.+) FROM customers WHERE id").
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow("cust-1", "Olim aka", nil, nil, "0", now, now))
	db.mock.ExpectExec("DELETE FROM customers").
		WithArgs("cust-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &stubRecorder{}
	router := newCustomerRouter(db, rec)

	req := httptest.NewRequest(http.MethodDelete, "/customers/cust-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got, want := mutationTypes(rec.mutations), []string{"Customer:DELETE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("mutations = %v, want %v", got, want)
	}
	if rec.mutations[0].New != nil {
		t.Error("DELETE mutation should have no new snapshot")
	}
}

func TestCustomerList(t *testing.T) {
	db := newSqlmockDB(t)
	defer db.Close()

	now := time.Now()
	db.mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	db.mock.ExpectQuery("SELECT (.+) FROM customers").
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow("cust-1", "Olim aka", nil, nil, "0", now, now))

	router := newCustomerRouter(db, &stubRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/customers?page=0&size=20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{`"totalElements":1`, `"Olim aka"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("body missing %s: %s", want, w.Body.String())
		}
	}
}
