package sheetrows

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindNull
	kindValue
)

// CellValue is the value slot of a cell. The zero value is unset and is
// left out of request payloads, so the server keeps whatever the cell holds.
// ExplicitNull clears the cell; Value sets it.
type CellValue struct {
	kind valueKind
	v    interface{}
}

// Value wraps a concrete value. A nil v yields an explicit null.
func Value(v interface{}) CellValue {
	if v == nil {
		return ExplicitNull()
	}
	if cv, ok := v.(CellValue); ok {
		return cv
	}
	return CellValue{kind: kindValue, v: v}
}

// ExplicitNull returns the marker that clears a cell on update.
func ExplicitNull() CellValue {
	return CellValue{kind: kindNull}
}

// IsZero reports whether the value was never set. Unset values are omitted
// from request bodies.
func (c CellValue) IsZero() bool { return c.kind == kindUnset }

// IsNull reports whether the value is an explicit null.
func (c CellValue) IsNull() bool { return c.kind == kindNull }

// HasValue reports whether the value holds a concrete value.
func (c CellValue) HasValue() bool { return c.kind == kindValue }

// Interface returns the wrapped value, or nil when unset or null.
func (c CellValue) Interface() interface{} {
	if c.kind != kindValue {
		return nil
	}
	return c.v
}

// String formats the value for logs.
func (c CellValue) String() string {
	switch c.kind {
	case kindUnset:
		return "<unset>"
	case kindNull:
		return "<null>"
	}
	return c.AsString("")
}

// MarshalJSON writes null for unset and null values.
func (c CellValue) MarshalJSON() ([]byte, error) {
	if c.kind != kindValue {
		return []byte("null"), nil
	}
	return json.Marshal(c.v)
}

// UnmarshalJSON is only reached when the key is present, so a JSON null
// decodes to an explicit null and an absent key stays unset. Integral
// numbers decode as int64 and other numbers as float64.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = ExplicitNull()
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	// integral numbers stay exact as int64
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			v = i
		} else if f, err := n.Float64(); err == nil {
			v = f
		} else {
			return fmt.Errorf("decoding cell number %q: %w", n, err)
		}
	}
	*c = CellValue{kind: kindValue, v: v}
	return nil
}

// Equal compares kinds and, for values, their formatted payloads.
func (c CellValue) Equal(other CellValue) bool {
	if c.kind != other.kind {
		return false
	}
	if c.kind != kindValue {
		return true
	}
	return compareEqual(c.v, other.v)
}

// AsString returns the value as string or defaultValue if there is none
func (c CellValue) AsString(defaultValue string) string {
	if c.kind != kindValue {
		return defaultValue
	}

	switch val := c.v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsInt64 returns the value as int64 or defaultValue if it is not numeric
func (c CellValue) AsInt64(defaultValue int64) int64 {
	if c.kind != kindValue {
		return defaultValue
	}

	switch val := c.v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// AsFloat64 returns the value as float64 or defaultValue if it is not numeric
func (c CellValue) AsFloat64(defaultValue float64) float64 {
	if c.kind != kindValue {
		return defaultValue
	}

	switch val := c.v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// AsBool returns the value as bool or defaultValue
func (c CellValue) AsBool(defaultValue bool) bool {
	if c.kind != kindValue {
		return defaultValue
	}

	switch val := c.v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1"
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return defaultValue
}

// AsTime returns the value as time.Time or defaultValue. DATE columns carry
// ISO 8601 strings.
func (c CellValue) AsTime(defaultValue time.Time) time.Time {
	if c.kind != kindValue {
		return defaultValue
	}

	switch val := c.v.(type) {
	case time.Time:
		return val
	case string:
		formats := []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, val); err == nil {
				return t
			}
		}
	}
	return defaultValue
}

// Cell is one column's slot within a row.
type Cell struct {
	ColumnID     int64     `json:"columnId" validate:"required"`
	Value        CellValue `json:"value,omitzero"`
	DisplayValue string    `json:"displayValue,omitempty"`
}

// NewCell builds a cell that sets columnID to v.
func NewCell(columnID int64, v interface{}) *Cell {
	return &Cell{ColumnID: columnID, Value: Value(v)}
}

// ClearCell builds a cell that clears columnID.
func ClearCell(columnID int64) *Cell {
	return &Cell{ColumnID: columnID, Value: ExplicitNull()}
}
