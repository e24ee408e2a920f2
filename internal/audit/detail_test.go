package audit_test

import (
	"reflect"
	"testing"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

func findItem(t *testing.T, items []audit.GroupDetailItem, label string) *audit.GroupDetailItem {
	t.Helper()
	for i := range items {
		if items[i].Label == label {
			return &items[i]
		}
	}
	t.Fatalf("no item labeled %q in %+v", label, items)
	return nil
}

func hasItem(items []audit.GroupDetailItem, label string) bool {
	for i := range items {
		if items[i].Label == label {
			return true
		}
	}
	return false
}

func debtPaymentGroup(t *testing.T, debtOld, debtNew string) *audit.Group {
	t.Helper()
	payment := makeLog("Payment", models.ActionCreate, "corr-dp", "",
		`{"amount":50000,"method":"CASH","customerId":"cust-1"}`)
	debt := makeLog("Debt", models.ActionUpdate, "corr-dp", debtOld, debtNew)
	customer := makeLog("Customer", models.ActionUpdate, "corr-dp",
		`{"name":"Ali Valiyev","balance":-200000}`, `{"name":"Ali Valiyev","balance":-150000}`)
	customerID := "cust-1"
	customer.EntityID = &customerID

	groups := audit.BuildGroups([]*models.AuditLog{payment, debt, customer})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	return groups[0]
}

func TestExtractDetail_DebtPayment(t *testing.T) {
	g := debtPaymentGroup(t,
		`{"remainingAmount":200000,"status":"ACTIVE"}`,
		`{"remainingAmount":150000,"status":"ACTIVE"}`)

	detail := audit.ExtractDetail(g)
	if detail.Operation != audit.OpDebtPayment {
		t.Fatalf("Operation = %s, want DEBT_PAYMENT", detail.Operation)
	}

	customer := findItem(t, detail.Items, "Mijoz")
	if customer.Value != "Ali Valiyev" {
		t.Errorf("customer = %q", customer.Value)
	}
	if customer.Link != "/customers/cust-1" {
		t.Errorf("customer link = %q", customer.Link)
	}

	amount := findItem(t, detail.Items, "To'lov summasi")
	if amount.Value != "50 000 so'm" {
		t.Errorf("payment amount = %q, want 50 000 so'm", amount.Value)
	}

	method := findItem(t, detail.Items, "To'lov usuli")
	if method.Value != "Naqd" {
		t.Errorf("payment method = %q, want Naqd", method.Value)
	}

	remaining := findItem(t, detail.Items, "Qarz qoldig'i")
	if remaining.Value != "150 000 so'm" || remaining.OldValue != "200 000 so'm" {
		t.Errorf("remaining = %q (old %q)", remaining.Value, remaining.OldValue)
	}
	if remaining.ChangeType != audit.ChangeModified {
		t.Errorf("remaining change type = %s", remaining.ChangeType)
	}

	// Status did not change, so no status line.
	if hasItem(detail.Items, "Qarz holati") {
		t.Error("unchanged debt status must be omitted")
	}

	balance := findItem(t, detail.Items, "Mijoz balansi")
	if balance.Value != "-150 000 so'm" || balance.OldValue != "-200 000 so'm" {
		t.Errorf("balance = %q (old %q)", balance.Value, balance.OldValue)
	}
}

func TestExtractDetail_DebtPaymentStatusChange(t *testing.T) {
	g := debtPaymentGroup(t,
		`{"remainingAmount":50000,"status":"ACTIVE"}`,
		`{"remainingAmount":0,"status":"PAID"}`)

	detail := audit.ExtractDetail(g)
	status := findItem(t, detail.Items, "Qarz holati")
	if status.Value != "To'langan" || status.OldValue != "Faol" {
		t.Errorf("status = %q (old %q), want To'langan (old Faol)", status.Value, status.OldValue)
	}
}

func TestExtractDetail_SaleCreate(t *testing.T) {
	saleID := "sale-1"
	sale := makeLog("Sale", models.ActionCreate, "corr-sc", "",
		`{"invoiceNumber":"INV-000042","customerName":"Ali Valiyev","customerId":"cust-1",`+
			`"totalAmount":1000000,"paidAmount":700000,"debtAmount":300000,"paymentMethod":"CARD"}`)
	sale.EntityID = &saleID
	items := []*models.AuditLog{
		sale,
		makeLog("SaleItem", models.ActionCreate, "corr-sc", "", `{"name":"Jalyuzi 2m"}`),
		makeLog("SaleItem", models.ActionCreate, "corr-sc", "", `{"name":"Karniz"}`),
		makeLog("StockMovement", models.ActionCreate, "corr-sc", "", `{"delta":-2}`),
	}

	groups := audit.BuildGroups(items)
	detail := audit.ExtractDetail(groups[0])
	if detail.Operation != audit.OpSaleCreate {
		t.Fatalf("Operation = %s, want SALE_CREATE", detail.Operation)
	}

	invoice := findItem(t, detail.Items, "Faktura raqami")
	if invoice.Value != "INV-000042" {
		t.Errorf("invoice = %q", invoice.Value)
	}
	if invoice.Link != "/sales/sale-1" {
		t.Errorf("invoice link = %q", invoice.Link)
	}

	customer := findItem(t, detail.Items, "Mijoz")
	if customer.Value != "Ali Valiyev" {
		t.Errorf("customer = %q", customer.Value)
	}

	count := findItem(t, detail.Items, "Mahsulotlar soni")
	if count.Value != "2 ta" {
		t.Errorf("item count = %q, want 2 ta", count.Value)
	}

	total := findItem(t, detail.Items, "Umumiy summa")
	if total.Value != "1 000 000 so'm" {
		t.Errorf("total = %q", total.Value)
	}
	paid := findItem(t, detail.Items, "To'langan summa")
	if paid.Value != "700 000 so'm" {
		t.Errorf("paid = %q", paid.Value)
	}
	debt := findItem(t, detail.Items, "Qarz summasi")
	if debt.Value != "300 000 so'm" || debt.ChangeType != audit.ChangeAdded {
		t.Errorf("debt = %q (%s)", debt.Value, debt.ChangeType)
	}
	method := findItem(t, detail.Items, "To'lov usuli")
	if method.Value != "Karta" {
		t.Errorf("method = %q, want Karta", method.Value)
	}
}

func TestExtractDetail_SaleCreateFullyPaidOmitsDebt(t *testing.T) {
	sale := makeLog("Sale", models.ActionCreate, "corr-sc2", "",
		`{"invoiceNumber":"INV-000043","totalAmount":500000,"paidAmount":500000,"debtAmount":0,"paymentMethod":"CASH"}`)
	item := makeLog("SaleItem", models.ActionCreate, "corr-sc2", "", `{"name":"Jalyuzi"}`)

	detail := audit.ExtractDetail(audit.BuildGroups([]*models.AuditLog{sale, item})[0])
	if hasItem(detail.Items, "Qarz summasi") {
		t.Error("zero debt amount must be omitted from a fully paid sale")
	}
}

func TestExtractDetail_Generic(t *testing.T) {
	product := makeLog("Product", models.ActionUpdate, "", `{"price":1000}`, `{"price":1200}`)
	detail := audit.ExtractDetail(audit.BuildGroups([]*models.AuditLog{product})[0])
	if detail.Operation != audit.OpGeneric {
		t.Fatalf("Operation = %s, want GENERIC", detail.Operation)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("generic detail has %d items, want 2: %+v", len(detail.Items), detail.Items)
	}
	if detail.Items[0].Label != "Obyektlar" || detail.Items[0].Value != "Product" {
		t.Errorf("items[0] = %+v", detail.Items[0])
	}
	if detail.Items[1].Label != "Yozuvlar soni" || detail.Items[1].Value != "1 ta" {
		t.Errorf("items[1] = %+v", detail.Items[1])
	}
}

func TestExtractDetail_Idempotent(t *testing.T) {
	g := debtPaymentGroup(t,
		`{"remainingAmount":200000,"status":"ACTIVE"}`,
		`{"remainingAmount":150000,"status":"ACTIVE"}`)

	first := audit.ExtractDetail(g)
	second := audit.ExtractDetail(g)
	if !reflect.DeepEqual(first, second) {
		t.Error("extraction must be a pure function of the group")
	}
}

func TestExtractDetail_MissingSnapshotsDegrade(t *testing.T) {
	// A debt-payment group whose snapshots are all empty still classifies, and
	// extraction skips every unresolvable item instead of failing.
	payment := makeLog("Payment", models.ActionCreate, "corr-empty", "", "")
	debt := makeLog("Debt", models.ActionUpdate, "corr-empty", "", "")

	detail := audit.ExtractDetail(audit.BuildGroups([]*models.AuditLog{payment, debt})[0])
	if detail.Operation != audit.OpDebtPayment {
		t.Fatalf("Operation = %s, want DEBT_PAYMENT", detail.Operation)
	}
	if len(detail.Items) != 0 {
		t.Errorf("expected no items from empty snapshots, got %+v", detail.Items)
	}
}
