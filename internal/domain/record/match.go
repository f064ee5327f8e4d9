package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Matches evalúa la conjunción de condiciones contra un documento. El campo
// especial "id" compara contra el id del documento. Una condición con
// operador desconocido no casa nunca (fail-closed).
func (f Filter) Matches(d Document) bool {
	for _, c := range f {
		var v any
		if c.Field == "id" {
			v = d.ID
		} else {
			v = d.Data[c.Field]
		}
		if !matchCond(v, c.Op, c.Value) {
			return false
		}
	}
	return true
}

func matchCond(v any, op Op, want any) bool {
	switch op {
	case OpEq:
		return valuesEqual(v, want)
	case OpNeq:
		return !valuesEqual(v, want)
	case OpGte:
		cmp, ok := compareValues(v, want)
		return ok && cmp >= 0
	case OpLte:
		cmp, ok := compareValues(v, want)
		return ok && cmp <= 0
	}
	return false
}

func valuesEqual(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	}
	return a == b
}

// compareValues compara tiempos y números; ok=false cuando los tipos no son
// comparables entre sí.
func compareValues(a, b any) (int, bool) {
	if ta, aok := a.(time.Time); aok {
		if tb, bok := b.(time.Time); bok {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if aok && bok {
		return da.Cmp(db), true
	}
	return 0, false
}

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
	}
	return decimal.Decimal{}, false
}
