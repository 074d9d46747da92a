package dataset

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// ColumnType is the inferred type of a column
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
)

// ValueKind tags the active field of a Value
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
)

// Value is one table cell
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// Missing returns the missing cell value
func Missing() Value { return Value{Kind: KindMissing} }

// Number returns a numeric cell value
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text returns a categorical cell value
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

func (v Value) IsMissing() bool { return v.Kind == KindMissing }
func (v Value) IsNumber() bool  { return v.Kind == KindNumber }

// String renders the cell for display and category labels; missing renders empty
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// Equal compares cells exactly; two missing cells are equal
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Text == o.Text
	default:
		return true
	}
}

// CompareValues orders cells naturally: numbers ascending, then text lexicographically,
// missing last.
func CompareValues(a, b Value) int {
	if a.Kind != b.Kind {
		return cmp.Compare(kindRank(a.Kind), kindRank(b.Kind))
	}
	switch a.Kind {
	case KindNumber:
		return cmp.Compare(a.Num, b.Num)
	case KindText:
		return strings.Compare(a.Text, b.Text)
	default:
		return 0
	}
}

func kindRank(k ValueKind) int {
	switch k {
	case KindNumber:
		return 0
	case KindText:
		return 1
	default:
		return 2
	}
}

// Column is a named, typed sequence of cells
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// Clone deep-copies the column
func (c *Column) Clone() *Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

func (c *Column) IsNumeric() bool { return c.Type == ColumnNumeric }

// MissingCount counts missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Present returns the non-missing cells in row order
func (c *Column) Present() []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.IsMissing() {
			out = append(out, v)
		}
	}
	return out
}

// Numbers returns the non-missing numeric cells in row order
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.IsNumber() {
			out = append(out, v.Num)
		}
	}
	return out
}

// Descriptor returns the read-only view of the column
func (c *Column) Descriptor() ColumnDescriptor {
	return ColumnDescriptor{Name: c.Name, Type: c.Type, MissingCount: c.MissingCount()}
}

// Table is an in-memory columnar table; all columns have the same length
type Table struct {
	Columns []*Column
}

// NewTable builds a table from columns
func NewTable(columns ...*Column) *Table {
	return &Table{Columns: columns}
}

func (t *Table) RowCount() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns the ordered column names
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Row returns the cells of row i across all columns
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// RowKey encodes a full row for exact equality checks
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.Columns {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		v := c.Values[i]
		b.WriteByte(byte('0' + v.Kind))
		switch v.Kind {
		case KindNumber:
			b.WriteString(strconv.FormatUint(floatBits(v.Num), 16))
		case KindText:
			b.WriteString(v.Text)
		}
	}
	return b.String()
}

// MissingCount counts missing cells in the whole table
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c.MissingCount()
	}
	return n
}

// RowHasMissing reports whether any cell of row i is missing
func (t *Table) RowHasMissing(i int) bool {
	for _, c := range t.Columns {
		if c.Values[i].IsMissing() {
			return true
		}
	}
	return false
}

// Clone deep-copies the table
func (t *Table) Clone() *Table {
	columns := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = c.Clone()
	}
	return &Table{Columns: columns}
}

// FilterRows returns a new table holding only the rows for which keep returns true
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	rows := t.RowCount()
	kept := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}

	columns := make([]*Column, len(t.Columns))
	for j, c := range t.Columns {
		values := make([]Value, len(kept))
		for k, i := range kept {
			values[k] = c.Values[i]
		}
		columns[j] = &Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return &Table{Columns: columns}
}

// Summary computes the whole-table overview
func (t *Table) Summary() Summary {
	s := Summary{Rows: t.RowCount(), Columns: t.ColumnCount(), MissingValues: t.MissingCount()}
	for _, c := range t.Columns {
		if c.IsNumeric() {
			s.NumericColumns++
		} else {
			s.CategoricalColumns++
		}
	}
	return s
}

// floatBits normalises signed zero so 0 and -0 rows compare equal
func floatBits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	return math.Float64bits(f)
}
