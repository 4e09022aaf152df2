package sheetrows_test

import (
	"testing"

	"github.com/ideamans/go-sheetrows"
)

const (
	colName   int64 = 101
	colAge    int64 = 102
	colStatus int64 = 103
)

func person(id int64, name string, age interface{}, status string) *sheetrows.Row {
	row := &sheetrows.Row{ID: id}
	row.SetCell(colName, sheetrows.Value(name))
	if age != nil {
		row.SetCell(colAge, sheetrows.Value(age))
	}
	if status != "" {
		row.SetCell(colStatus, sheetrows.Value(status))
	}
	return row
}

func TestRow_Matches(t *testing.T) {
	tests := []struct {
		name  string
		row   *sheetrows.Row
		query sheetrows.Query
		want  bool
	}{
		{
			name: "single == condition match",
			row:  person(1, "John", 30, "active"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "==", Value: "active"},
			}},
			want: true,
		},
		{
			name: "single == condition no match",
			row:  person(1, "John", 30, "inactive"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "==", Value: "active"},
			}},
			want: false,
		},
		{
			name: "!= condition",
			row:  person(1, "John", 30, "inactive"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "!=", Value: "active"},
			}},
			want: true,
		},
		{
			name: "> condition across numeric types",
			row:  person(1, "John", float64(25), ""),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colAge, Operator: ">", Value: 20},
			}},
			want: true,
		},
		{
			name: ">= condition with equal values",
			row:  person(1, "John", 20, ""),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colAge, Operator: ">=", Value: 20},
			}},
			want: true,
		},
		{
			name: "< condition on string value",
			row:  person(1, "John", "twenty", ""),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colAge, Operator: "<", Value: 30},
			}},
			want: false,
		},
		{
			name: "in condition",
			row:  person(1, "John", 30, "pending"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "in", Value: []interface{}{"active", "pending"}},
			}},
			want: true,
		},
		{
			name: "between condition",
			row:  person(1, "John", 30, ""),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colAge, Operator: "between", Value: [2]interface{}{18, 30}},
			}},
			want: true,
		},
		{
			name: "unset cell equals nil",
			row:  person(1, "John", nil, ""),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colAge, Operator: "==", Value: nil},
			}},
			want: true,
		},
		{
			name: "multiple conditions are ANDed",
			row:  person(1, "John", 30, "active"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "==", Value: "active"},
				{ColumnID: colAge, Operator: "<", Value: 30},
			}},
			want: false,
		},
		{
			name: "unknown operator never matches",
			row:  person(1, "John", 30, "active"),
			query: sheetrows.Query{Conditions: []sheetrows.Condition{
				{ColumnID: colStatus, Operator: "~=", Value: "active"},
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Matches(tt.query); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyQuery(t *testing.T) {
	rows := []*sheetrows.Row{
		person(1, "Alice", 31, "active"),
		person(2, "Bob", 25, "inactive"),
		person(3, "Carol", 42, "active"),
		person(4, "Dave", 19, "active"),
	}
	active := []sheetrows.Condition{{ColumnID: colStatus, Operator: "==", Value: "active"}}

	tests := []struct {
		name    string
		query   sheetrows.Query
		wantIDs []int64
	}{
		{"no conditions", sheetrows.Query{}, []int64{1, 2, 3, 4}},
		{"filter keeps sheet order", sheetrows.Query{Conditions: active}, []int64{1, 3, 4}},
		{"limit", sheetrows.Query{Conditions: active, Limit: 2}, []int64{1, 3}},
		{"offset", sheetrows.Query{Conditions: active, Offset: 1}, []int64{3, 4}},
		{"offset and limit", sheetrows.Query{Conditions: active, Offset: 1, Limit: 1}, []int64{3}},
		{"offset past end", sheetrows.Query{Conditions: active, Offset: 5}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sheetrows.ApplyQuery(rows, tt.query)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ApplyQuery() returned %d rows, want %d", len(got), len(tt.wantIDs))
			}
			for i, row := range got {
				if row.ID != tt.wantIDs[i] {
					t.Errorf("row[%d].ID = %d, want %d", i, row.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   sheetrows.Query
		wantErr bool
	}{
		{
			name:  "valid query",
			query: sheetrows.Query{Conditions: []sheetrows.Condition{{ColumnID: colAge, Operator: ">", Value: 1}}},
		},
		{
			name:    "invalid operator",
			query:   sheetrows.Query{Conditions: []sheetrows.Condition{{ColumnID: colAge, Operator: "LIKE", Value: 1}}},
			wantErr: true,
		},
		{
			name:    "in without list",
			query:   sheetrows.Query{Conditions: []sheetrows.Condition{{ColumnID: colAge, Operator: "in", Value: 1}}},
			wantErr: true,
		},
		{
			name:    "between with three values",
			query:   sheetrows.Query{Conditions: []sheetrows.Condition{{ColumnID: colAge, Operator: "between", Value: []interface{}{1, 2, 3}}}},
			wantErr: true,
		},
		{
			name:    "missing column",
			query:   sheetrows.Query{Conditions: []sheetrows.Condition{{Operator: "==", Value: 1}}},
			wantErr: true,
		},
		{
			name:    "negative limit",
			query:   sheetrows.Query{Limit: -1},
			wantErr: true,
		},
		{
			name:    "negative offset",
			query:   sheetrows.Query{Offset: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sheetrows.ValidateQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
