// fieldchange.go computes per-field before/after deltas for one audit entry, plus the
// shallow changed-key set the diff panels highlight. "Changed" means the two sides'
// serializations differ at the top-level key; nested edits flag the whole key rather
// than being diffed recursively, which matches the flat-row rendering downstream.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ChangeType classifies one field-level delta.
type ChangeType string

const (
	ChangeAdded     ChangeType = "ADDED"
	ChangeRemoved   ChangeType = "REMOVED"
	ChangeModified  ChangeType = "MODIFIED"
	ChangeUnchanged ChangeType = "UNCHANGED"
)

// FieldType drives how a field's values are formatted for display.
type FieldType string

const (
	FieldString   FieldType = "STRING"
	FieldNumber   FieldType = "NUMBER"
	FieldCurrency FieldType = "CURRENCY"
	FieldDate     FieldType = "DATE"
	FieldDateTime FieldType = "DATETIME"
	FieldBoolean  FieldType = "BOOLEAN"
	FieldEnum     FieldType = "ENUM"
	FieldJSON     FieldType = "JSON"
)

// sensitiveMask replaces sensitive values in display strings.
const sensitiveMask = "••••••"

// FieldChange is one field-level diff of one audit entry.
type FieldChange struct {
	FieldName         string     `json:"fieldName"`
	FieldLabel        string     `json:"fieldLabel"`
	OldValue          any        `json:"oldValue"`
	NewValue          any        `json:"newValue"`
	ChangeType        ChangeType `json:"changeType"`
	FieldType         FieldType  `json:"fieldType"`
	IsSensitive       bool       `json:"isSensitive"`
	OldValueFormatted string     `json:"oldValueFormatted"`
	NewValueFormatted string     `json:"newValueFormatted"`
}

// fieldMeta describes how a known field is labeled and rendered.
type fieldMeta struct {
	label     string
	typ       FieldType
	sensitive bool
}

// fieldRegistry maps entityType -> fieldName -> metadata. Fields not listed
// here fall back to the field name as label and a type inferred from the value.
var fieldRegistry = map[string]map[string]fieldMeta{
	"Sale": {
		"invoiceNumber": {label: "Faktura raqami", typ: FieldString},
		"customerName":  {label: "Mijoz", typ: FieldString},
		"totalAmount":   {label: "Umumiy summa", typ: FieldCurrency},
		"paidAmount":    {label: "To'langan summa", typ: FieldCurrency},
		"debtAmount":    {label: "Qarz summasi", typ: FieldCurrency},
		"paymentMethod": {label: "To'lov usuli", typ: FieldEnum},
	},
	"Debt": {
		"totalAmount":     {label: "Qarz summasi", typ: FieldCurrency},
		"remainingAmount": {label: "Qarz qoldig'i", typ: FieldCurrency},
		"status":          {label: "Qarz holati", typ: FieldEnum},
		"dueDate":         {label: "Muddat", typ: FieldDate},
	},
	"Payment": {
		"amount": {label: "To'lov summasi", typ: FieldCurrency},
		"method": {label: "To'lov usuli", typ: FieldEnum},
	},
	"Customer": {
		"name":    {label: "Mijoz", typ: FieldString},
		"phone":   {label: "Telefon", typ: FieldString},
		"address": {label: "Manzil", typ: FieldString},
		"balance": {label: "Balans", typ: FieldCurrency},
	},
	"Product": {
		"name":     {label: "Nomi", typ: FieldString},
		"sku":      {label: "Artikul", typ: FieldString},
		"price":    {label: "Narxi", typ: FieldCurrency},
		"quantity": {label: "Miqdori", typ: FieldNumber},
	},
	"User": {
		"username":     {label: "Login", typ: FieldString},
		"fullName":     {label: "F.I.Sh.", typ: FieldString},
		"role":         {label: "Rol", typ: FieldEnum},
		"passwordHash": {label: "Parol", typ: FieldString, sensitive: true},
	},
}

// ComputeFieldChanges diffs the two snapshots of an entry into a deterministic,
// name-sorted FieldChange list over the symmetric union of keys.
func ComputeFieldChanges(entityType string, oldRaw, newRaw json.RawMessage) []FieldChange {
	oldP := DecodePayload(oldRaw)
	newP := DecodePayload(newRaw)

	keys := unionKeys(oldP, newP)
	changes := make([]FieldChange, 0, len(keys))
	for _, key := range keys {
		oldV, hasOld := oldP.Get(key)
		newV, hasNew := newP.Get(key)

		fc := FieldChange{
			FieldName:  key,
			ChangeType: changeTypeOf(oldV, hasOld, newV, hasNew),
			OldValue:   oldV,
			NewValue:   newV,
		}

		meta, known := fieldRegistry[entityType][key]
		if known {
			fc.FieldLabel = meta.label
			fc.FieldType = meta.typ
			fc.IsSensitive = meta.sensitive
		} else {
			fc.FieldLabel = key
			fc.FieldType = inferFieldType(oldV, newV)
		}

		fc.OldValueFormatted = formatFieldValue(fc, oldV, hasOld)
		fc.NewValueFormatted = formatFieldValue(fc, newV, hasNew)
		if fc.IsSensitive {
			fc.OldValue, fc.NewValue = nil, nil
		}
		changes = append(changes, fc)
	}
	return changes
}

// changeTypeOf applies the spec'd classification: ADDED iff old absent and new
// present, REMOVED iff the reverse, MODIFIED iff both present and unequal,
// UNCHANGED otherwise.
func changeTypeOf(oldV any, hasOld bool, newV any, hasNew bool) ChangeType {
	switch {
	case !hasOld && hasNew:
		return ChangeAdded
	case hasOld && !hasNew:
		return ChangeRemoved
	case hasOld && hasNew && !serializedEqual(oldV, newV):
		return ChangeModified
	default:
		return ChangeUnchanged
	}
}

// ChangedKeys returns the top-level keys whose serialized values differ between
// the two snapshots, sorted for deterministic rendering.
func ChangedKeys(oldRaw, newRaw json.RawMessage) []string {
	oldP := DecodePayload(oldRaw)
	newP := DecodePayload(newRaw)

	var changed []string
	for _, key := range unionKeys(oldP, newP) {
		oldV, hasOld := oldP.Get(key)
		newV, hasNew := newP.Get(key)
		if hasOld != hasNew || !serializedEqual(oldV, newV) {
			changed = append(changed, key)
		}
	}
	return changed
}

// PanelVisibility says which diff panels to render for an entry.
type PanelVisibility struct {
	ShowOld bool `json:"showOld"`
	ShowNew bool `json:"showNew"`
}

// PanelsFor maps an action to its panel layout: CREATE shows only the new
// state, DELETE only the old, everything else both. The action is compared
// case-insensitively.
func PanelsFor(action string) PanelVisibility {
	switch strings.ToUpper(action) {
	case "CREATE":
		return PanelVisibility{ShowNew: true}
	case "DELETE":
		return PanelVisibility{ShowOld: true}
	default:
		return PanelVisibility{ShowOld: true, ShowNew: true}
	}
}

// unionKeys returns the sorted symmetric union of the two payloads' keys.
// Keys carrying an explicit null on both sides still participate so they can
// classify as UNCHANGED.
func unionKeys(oldP, newP Payload) []string {
	seen := make(map[string]bool, len(oldP)+len(newP))
	for k := range oldP {
		seen[k] = true
	}
	for k := range newP {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// serializedEqual is equality by serialization, not structural diffing.
func serializedEqual(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// inferFieldType guesses a display type for fields absent from the registry.
func inferFieldType(oldV, newV any) FieldType {
	v := newV
	if v == nil {
		v = oldV
	}
	switch v.(type) {
	case bool:
		return FieldBoolean
	case float64, json.Number:
		return FieldNumber
	case map[string]any, []any:
		return FieldJSON
	default:
		return FieldString
	}
}

// formatFieldValue renders one side of a field change for display.
func formatFieldValue(fc FieldChange, v any, present bool) string {
	if !present {
		return missingValue
	}
	if fc.IsSensitive {
		return sensitiveMask
	}
	switch fc.FieldType {
	case FieldCurrency:
		return FormatCurrencyValue(v)
	case FieldNumber:
		return FormatNumber(v)
	case FieldBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "Ha"
			}
			return "Yo'q"
		}
	case FieldEnum:
		if s, ok := v.(string); ok {
			if localized := LocalizePaymentMethod(s); localized != s && localized != missingValue {
				return localized
			}
			if localized := LocalizeDebtStatus(s); localized != s && localized != missingValue {
				return localized
			}
			return s
		}
	case FieldJSON:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}
