package sheetrows

import (
	"fmt"
)

// Condition represents a single filter condition on one column
type Condition struct {
	ColumnID int64       // column to compare
	Operator string      // ==, !=, >, >=, <, <=, in, between
	Value    interface{} // []interface{} for in, [2]interface{} for between
}

// Query represents a filter over fetched rows; conditions are ANDed
type Query struct {
	Conditions []Condition
	Limit      int
	Offset     int
}

// evalCondition evaluates a single condition against a row
func evalCondition(row *Row, condition Condition) bool {
	// unset and null cells compare as nil
	value := row.Value(condition.ColumnID).Interface()

	switch condition.Operator {
	case "==":
		return compareEqual(value, condition.Value)
	case "!=":
		return !compareEqual(value, condition.Value)
	case ">":
		return compareOrdered(value, condition.Value, func(a, b float64) bool { return a > b })
	case ">=":
		return compareOrdered(value, condition.Value, func(a, b float64) bool { return a >= b })
	case "<":
		return compareOrdered(value, condition.Value, func(a, b float64) bool { return a < b })
	case "<=":
		return compareOrdered(value, condition.Value, func(a, b float64) bool { return a <= b })
	case "in":
		return compareIn(value, condition.Value)
	case "between":
		return compareBetween(value, condition.Value)
	default:
		return false
	}
}

// Matches checks if a row matches all conditions in the query
func (r *Row) Matches(query Query) bool {
	for _, condition := range query.Conditions {
		if !evalCondition(r, condition) {
			return false
		}
	}
	return true
}

// compareEqual compares two values for equality
func compareEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	// int64 and float64 cells holding the same number are equal
	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareOrdered(a, b interface{}, cmp func(a, b float64) bool) bool {
	if !isNumeric(a) || !isNumeric(b) {
		return false
	}
	return cmp(toFloat64(a), toFloat64(b))
}

// compareIn checks if a is in the list b
func compareIn(a, b interface{}) bool {
	list, ok := b.([]interface{})
	if !ok {
		return false
	}

	for _, item := range list {
		if compareEqual(a, item) {
			return true
		}
	}
	return false
}

// compareBetween checks if a is between b[0] and b[1] inclusive
func compareBetween(a, b interface{}) bool {
	var min, max interface{}

	switch v := b.(type) {
	case [2]interface{}:
		min, max = v[0], v[1]
	case []interface{}:
		if len(v) != 2 {
			return false
		}
		min, max = v[0], v[1]
	default:
		return false
	}

	if !isNumeric(a) || !isNumeric(min) || !isNumeric(max) {
		return false
	}

	aVal := toFloat64(a)
	return aVal >= toFloat64(min) && aVal <= toFloat64(max)
}

// isNumeric checks if a value is numeric
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}

// ApplyQuery filters rows based on query conditions, keeping sheet order
func ApplyQuery(rows []*Row, query Query) []*Row {
	results := []*Row{}

	for _, row := range rows {
		if row.Matches(query) {
			results = append(results, row)
		}
	}

	if query.Offset >= len(results) {
		return []*Row{}
	}
	if query.Offset > 0 {
		results = results[query.Offset:]
	}

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results
}

// ValidateQuery validates query structure
func ValidateQuery(query Query) error {
	validOps := map[string]bool{
		"==": true, "!=": true, ">": true, ">=": true,
		"<": true, "<=": true, "in": true, "between": true,
	}

	for i, cond := range query.Conditions {
		if !validOps[cond.Operator] {
			return fmt.Errorf("invalid operator '%s' in condition %d", cond.Operator, i)
		}

		if cond.Operator == "in" {
			if _, ok := cond.Value.([]interface{}); !ok {
				return fmt.Errorf("operator 'in' requires []interface{} value in condition %d", i)
			}
		}

		if cond.Operator == "between" {
			valid := false
			switch v := cond.Value.(type) {
			case [2]interface{}:
				valid = true
			case []interface{}:
				valid = len(v) == 2
			}
			if !valid {
				return fmt.Errorf("operator 'between' requires [2]interface{} or []interface{} with 2 elements in condition %d", i)
			}
		}

		if cond.ColumnID == 0 {
			return fmt.Errorf("missing column id in condition %d", i)
		}
	}

	if query.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if query.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}

	return nil
}
