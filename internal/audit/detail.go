// detail.go turns a classified group into an ordered list of business-facing detail
// items. Extraction is a pure function of the group: it never errors, and every
// missing source value is simply omitted from the list.
package audit

import (
	"fmt"
	"strings"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
)

// GroupDetailItem is one labeled line of a curated group detail view.
type GroupDetailItem struct {
	Label      string     `json:"label"`
	Value      string     `json:"value"`
	OldValue   string     `json:"oldValue,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Link       string     `json:"link,omitempty"`
	ChangeType ChangeType `json:"changeType,omitempty"`
}

// GroupDetail is the synthesized detail view for one group.
type GroupDetail struct {
	Operation OperationType     `json:"operation"`
	Items     []GroupDetailItem `json:"items"`
}

// ExtractDetail classifies the group and produces its curated detail items.
func ExtractDetail(g *Group) *GroupDetail {
	op := Classify(g)
	detail := &GroupDetail{Operation: op}
	switch op {
	case OpDebtPayment:
		detail.Items = extractDebtPayment(g)
	case OpSaleCreate:
		detail.Items = extractSaleCreate(g)
	default:
		detail.Items = extractGeneric(g)
	}
	return detail
}

// extractDebtPayment reads the Payment, Debt, Customer, and Sale entries of a
// debt-payment group. Field order is fixed; anything unresolvable is skipped.
func extractDebtPayment(g *Group) []GroupDetailItem {
	paymentLog := g.findByEntityType("Payment")
	debtLog := g.findByEntityType("Debt")
	customerLog := g.findByEntityType("Customer")
	saleLog := g.findByEntityType("Sale")

	var payment PaymentSnapshot
	if paymentLog != nil {
		payment = DecodePayment(paymentLog.NewValue)
	}
	var debtOld, debtNew DebtSnapshot
	if debtLog != nil {
		debtOld = DecodeDebt(debtLog.OldValue)
		debtNew = DecodeDebt(debtLog.NewValue)
	}
	var custOld, custNew CustomerSnapshot
	if customerLog != nil {
		custOld = DecodeCustomer(customerLog.OldValue)
		custNew = DecodeCustomer(customerLog.NewValue)
	}

	var items []GroupDetailItem

	// Customer name, linked when the customer id is resolvable.
	if name := firstNonEmpty(custNew.Name, custOld.Name); name != "" {
		item := GroupDetailItem{Label: "Mijoz", Value: name, Icon: "user"}
		if id := customerID(customerLog, payment.CustomerID); id != "" {
			item.Link = "/customers/" + id
		}
		items = append(items, item)
	}

	// Invoice number from the Sale entry.
	if saleLog != nil {
		sale := DecodeSale(saleLog.NewValue)
		if sale.InvoiceNumber == "" {
			sale = DecodeSale(saleLog.OldValue)
		}
		if sale.InvoiceNumber != "" {
			item := GroupDetailItem{Label: "Faktura raqami", Value: sale.InvoiceNumber, Icon: "receipt"}
			if saleLog.EntityID != nil {
				item.Link = "/sales/" + *saleLog.EntityID
			}
			items = append(items, item)
		}
	}

	if payment.Amount != nil {
		items = append(items, GroupDetailItem{
			Label: "To'lov summasi",
			Value: FormatCurrency(payment.Amount),
			Icon:  "cash",
		})
	}
	if payment.Method != "" {
		items = append(items, GroupDetailItem{
			Label: "To'lov usuli",
			Value: LocalizePaymentMethod(payment.Method),
			Icon:  "credit-card",
		})
	}

	// Debt remaining amount before -> after, shown when either side exists.
	if debtOld.RemainingAmount != nil || debtNew.RemainingAmount != nil {
		items = append(items, GroupDetailItem{
			Label:      "Qarz qoldig'i",
			Value:      FormatCurrency(debtNew.RemainingAmount),
			OldValue:   FormatCurrency(debtOld.RemainingAmount),
			Icon:       "scale",
			ChangeType: ChangeModified,
		})
	}

	// Debt status only when it actually changed.
	if debtOld.Status != "" || debtNew.Status != "" {
		if debtOld.Status != debtNew.Status {
			items = append(items, GroupDetailItem{
				Label:      "Qarz holati",
				Value:      LocalizeDebtStatus(debtNew.Status),
				OldValue:   LocalizeDebtStatus(debtOld.Status),
				Icon:       "flag",
				ChangeType: ChangeModified,
			})
		}
	}

	// Customer balance before -> after, shown when either side exists.
	if custOld.Balance != nil || custNew.Balance != nil {
		items = append(items, GroupDetailItem{
			Label:      "Mijoz balansi",
			Value:      FormatCurrency(custNew.Balance),
			OldValue:   FormatCurrency(custOld.Balance),
			Icon:       "wallet",
			ChangeType: ChangeModified,
		})
	}

	return items
}

// extractSaleCreate reads the Sale, Customer, and SaleItem entries of a
// sale-creation group.
func extractSaleCreate(g *Group) []GroupDetailItem {
	saleLog := g.findByEntityType("Sale")
	customerLog := g.findByEntityType("Customer")

	var sale SaleSnapshot
	if saleLog != nil {
		sale = DecodeSale(saleLog.NewValue)
	}

	var items []GroupDetailItem

	if sale.InvoiceNumber != "" {
		item := GroupDetailItem{Label: "Faktura raqami", Value: sale.InvoiceNumber, Icon: "receipt"}
		if saleLog.EntityID != nil {
			item.Link = "/sales/" + *saleLog.EntityID
		}
		items = append(items, item)
	}

	if name := saleCustomerName(sale, customerLog); name != "" {
		item := GroupDetailItem{Label: "Mijoz", Value: name, Icon: "user"}
		if id := customerID(customerLog, sale.CustomerID); id != "" {
			item.Link = "/customers/" + id
		}
		items = append(items, item)
	}

	if n := g.countByEntityType("SaleItem"); n > 0 {
		items = append(items, GroupDetailItem{
			Label: "Mahsulotlar soni",
			Value: fmt.Sprintf("%d ta", n),
			Icon:  "box",
		})
	}

	if sale.TotalAmount != nil {
		items = append(items, GroupDetailItem{
			Label: "Umumiy summa",
			Value: FormatCurrency(sale.TotalAmount),
			Icon:  "cash",
		})
	}
	if sale.PaidAmount != nil {
		items = append(items, GroupDetailItem{
			Label: "To'langan summa",
			Value: FormatCurrency(sale.PaidAmount),
			Icon:  "cash",
		})
	}
	if sale.DebtAmount != nil && sale.DebtAmount.IsPositive() {
		items = append(items, GroupDetailItem{
			Label:      "Qarz summasi",
			Value:      FormatCurrency(sale.DebtAmount),
			Icon:       "scale",
			ChangeType: ChangeAdded,
		})
	}
	if sale.PaymentMethod != "" {
		items = append(items, GroupDetailItem{
			Label: "To'lov usuli",
			Value: LocalizePaymentMethod(sale.PaymentMethod),
			Icon:  "credit-card",
		})
	}

	return items
}

// extractGeneric emits exactly two summary items: the distinct entity types and
// the entry count.
func extractGeneric(g *Group) []GroupDetailItem {
	return []GroupDetailItem{
		{Label: "Obyektlar", Value: strings.Join(g.EntityTypes, ", "), Icon: "layers"},
		{Label: "Yozuvlar soni", Value: fmt.Sprintf("%d ta", len(g.Logs)), Icon: "list"},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// customerID resolves the linked customer id from the Customer entry itself or
// a snapshot reference carried by another entry of the group.
func customerID(customerLog *models.AuditLog, snapshotRef string) string {
	if customerLog != nil && customerLog.EntityID != nil && *customerLog.EntityID != "" {
		return *customerLog.EntityID
	}
	return snapshotRef
}

// saleCustomerName prefers the Sale snapshot's denormalized name, falling back
// to the Customer entry's own snapshot.
func saleCustomerName(sale SaleSnapshot, customerLog *models.AuditLog) string {
	if sale.CustomerName != "" {
		return sale.CustomerName
	}
	if customerLog == nil {
		return ""
	}
	if s := DecodeCustomer(customerLog.NewValue); s.Name != "" {
		return s.Name
	}
	return DecodeCustomer(customerLog.OldValue).Name
}
