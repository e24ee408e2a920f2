// classify.go maps a grouped set of audit entries to an operation type so the UI can
// show a curated detail view instead of raw rows. Classification is an ordered rule
// list: the first matching rule wins, and rule order is the priority order. A group
// that matches nothing is GENERIC, so unrecognized entity-type combinations degrade
// to the raw view instead of failing.
package audit

// OperationType tags the business operation a group of audit entries represents.
type OperationType string

const (
	OpDebtPayment OperationType = "DEBT_PAYMENT"
	OpSaleCreate  OperationType = "SALE_CREATE"
	OpGeneric     OperationType = "GENERIC"
)

// classifierRule pairs an operation type with its predicate over the group's
// entity-type set.
type classifierRule struct {
	op    OperationType
	match func(types map[string]bool) bool
}

// classifierRules is evaluated in order; keep DEBT_PAYMENT ahead of SALE_CREATE
// so a malformed group satisfying both patterns classifies as a debt payment.
var classifierRules = []classifierRule{
	{
		op: OpDebtPayment,
		match: func(types map[string]bool) bool {
			return types["Payment"] && types["Debt"]
		},
	},
	{
		op: OpSaleCreate,
		match: func(types map[string]bool) bool {
			return types["Sale"] && (types["SaleItem"] || types["StockMovement"])
		},
	},
}

// Classify returns the operation type of a group. It always returns a value;
// OpGeneric is the total fallback.
func Classify(g *Group) OperationType {
	types := make(map[string]bool, len(g.EntityTypes))
	for _, t := range g.EntityTypes {
		types[t] = true
	}
	for _, rule := range classifierRules {
		if rule.match(types) {
			return rule.op
		}
	}
	return OpGeneric
}
