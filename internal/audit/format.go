// format.go holds the display formatters used by detail extraction and field-change
// rendering. Every formatter treats a missing value as "-" so partially populated
// snapshots degrade to omitted or dashed fields instead of errors.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// missingValue is rendered wherever a source value is absent.
const missingValue = "-"

// dateTimeLayout is the fixed display pattern for timestamps: dd.MM.yyyy HH:mm.
const dateTimeLayout = "02.01.2006 15:04"

// FormatCurrency renders an amount with space-grouped thousands and the so'm
// suffix: 1000000 -> "1 000 000 so'm". A nil amount renders as "-".
func FormatCurrency(d *decimal.Decimal) string {
	if d == nil {
		return missingValue
	}
	return groupThousands(*d) + " so'm"
}

// FormatCurrencyValue is FormatCurrency for loosely typed snapshot values.
// Unparseable values fall back to their literal string representation.
func FormatCurrencyValue(v any) string {
	if v == nil {
		return missingValue
	}
	d, ok := toDecimal(v)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return FormatCurrency(&d)
}

// FormatNumber renders a plain number with space-grouped thousands, no suffix.
func FormatNumber(v any) string {
	if v == nil {
		return missingValue
	}
	d, ok := toDecimal(v)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return groupThousands(d)
}

// FormatDateTime renders a timestamp as dd.MM.yyyy HH:mm.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return missingValue
	}
	return t.Format(dateTimeLayout)
}

// paymentMethodNames localizes payment method codes.
var paymentMethodNames = map[string]string{
	"CASH":     "Naqd",
	"CARD":     "Karta",
	"TRANSFER": "O'tkazma",
}

// LocalizePaymentMethod returns the localized payment method name, or the raw
// code when it is not a known method.
func LocalizePaymentMethod(method string) string {
	if method == "" {
		return missingValue
	}
	if name, ok := paymentMethodNames[strings.ToUpper(method)]; ok {
		return name
	}
	return method
}

// debtStatusNames localizes debt status codes.
var debtStatusNames = map[string]string{
	"ACTIVE": "Faol",
	"PAID":   "To'langan",
}

// LocalizeDebtStatus returns the localized debt status, or the raw code.
func LocalizeDebtStatus(status string) string {
	if status == "" {
		return missingValue
	}
	if name, ok := debtStatusNames[strings.ToUpper(status)]; ok {
		return name
	}
	return status
}

// groupThousands renders d with the integer digits grouped in threes by spaces.
// Fractional digits are kept only when non-zero.
func groupThousands(d decimal.Decimal) string {
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// toDecimal coerces the dynamic value types produced by JSON decoding into a
// decimal amount.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
