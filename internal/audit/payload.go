// payload.go provides null-safe access to the raw JSON snapshots carried by audit
// entries, plus typed decoders for the entity types the detail extractor knows about.
// Unknown entity types keep working through the generic Payload form, so new backend
// entities never break the viewer.
package audit

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Payload is a decoded JSON snapshot. All accessors are safe on a nil map and
// report absence instead of failing, mirroring optional-chaining semantics.
type Payload map[string]any

// DecodePayload decodes a raw snapshot. A nil, empty, or malformed snapshot
// decodes to a nil Payload, which every accessor treats as "all keys absent".
func DecodePayload(raw json.RawMessage) Payload {
	if len(raw) == 0 {
		return nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return p
}

// Get returns the value for key. A JSON null counts as absent.
func (p Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value for key as a string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decimal returns the value for key as a decimal amount.
func (p Payload) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := p.Get(key)
	if !ok {
		return decimal.Decimal{}, false
	}
	return toDecimal(v)
}

// Int returns the value for key as an integer, truncating any fraction.
func (p Payload) Int(key string) (int64, bool) {
	d, ok := p.Decimal(key)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

// Typed snapshots. Decoders tolerate any missing key; optional fields stay nil.

// PaymentSnapshot is the decoded form of a Payment entry's snapshot.
type PaymentSnapshot struct {
	Amount     *decimal.Decimal
	Method     string
	CustomerID string
	SaleID     string
}

// DecodePayment decodes a Payment snapshot.
func DecodePayment(raw json.RawMessage) PaymentSnapshot {
	p := DecodePayload(raw)
	var s PaymentSnapshot
	if d, ok := p.Decimal("amount"); ok {
		s.Amount = &d
	}
	s.Method, _ = p.String("method")
	s.CustomerID, _ = p.String("customerId")
	s.SaleID, _ = p.String("saleId")
	return s
}

// DebtSnapshot is the decoded form of a Debt entry's snapshot.
type DebtSnapshot struct {
	RemainingAmount *decimal.Decimal
	Status          string
	CustomerID      string
	SaleID          string
}

// DecodeDebt decodes a Debt snapshot.
func DecodeDebt(raw json.RawMessage) DebtSnapshot {
	p := DecodePayload(raw)
	var s DebtSnapshot
	if d, ok := p.Decimal("remainingAmount"); ok {
		s.RemainingAmount = &d
	}
	s.Status, _ = p.String("status")
	s.CustomerID, _ = p.String("customerId")
	s.SaleID, _ = p.String("saleId")
	return s
}

// SaleSnapshot is the decoded form of a Sale entry's snapshot.
type SaleSnapshot struct {
	InvoiceNumber string
	CustomerID    string
	CustomerName  string
	TotalAmount   *decimal.Decimal
	PaidAmount    *decimal.Decimal
	DebtAmount    *decimal.Decimal
	PaymentMethod string
}

// DecodeSale decodes a Sale snapshot.
func DecodeSale(raw json.RawMessage) SaleSnapshot {
	p := DecodePayload(raw)
	var s SaleSnapshot
	s.InvoiceNumber, _ = p.String("invoiceNumber")
	s.CustomerID, _ = p.String("customerId")
	s.CustomerName, _ = p.String("customerName")
	if d, ok := p.Decimal("totalAmount"); ok {
		s.TotalAmount = &d
	}
	if d, ok := p.Decimal("paidAmount"); ok {
		s.PaidAmount = &d
	}
	if d, ok := p.Decimal("debtAmount"); ok {
		s.DebtAmount = &d
	}
	s.PaymentMethod, _ = p.String("paymentMethod")
	return s
}

// CustomerSnapshot is the decoded form of a Customer entry's snapshot.
type CustomerSnapshot struct {
	Name    string
	Balance *decimal.Decimal
}

// DecodeCustomer decodes a Customer snapshot.
func DecodeCustomer(raw json.RawMessage) CustomerSnapshot {
	p := DecodePayload(raw)
	var s CustomerSnapshot
	s.Name, _ = p.String("name")
	if d, ok := p.Decimal("balance"); ok {
		s.Balance = &d
	}
	return s
}
