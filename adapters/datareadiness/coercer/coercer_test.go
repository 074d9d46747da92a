package coercer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcalc/domain/dataset"
)

func TestIsMissing(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	for _, tok := range []string{"", "  ", "NA", "N/A", "nan", "NaN", "null", "None", "#N/A", "<NA>"} {
		assert.True(t, c.IsMissing(tok), "token %q", tok)
	}
	for _, tok := range []string{"0", "missing", "-", "Null value"} {
		assert.False(t, c.IsMissing(tok), "token %q", tok)
	}
}

func TestParseNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3", 3, true},
		{" 2.5 ", 2.5, true},
		{"-1e3", -1000, true},
		{"inf", 0, false},
		{"1,000", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.ParseNumeric(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestParseNumericLenient(t *testing.T) {
	c := NewTypeCoercer(CoercionConfig{Lenient: true})

	got, ok := c.ParseNumeric("(1,234.50 $)")
	require.True(t, ok)
	assert.Equal(t, -1234.5, got)

	got, ok = c.ParseNumeric("1.234,5")
	require.True(t, ok)
	assert.Equal(t, 1234.5, got)

	got, ok = c.ParseNumeric("45%")
	require.True(t, ok)
	assert.Equal(t, 45.0, got)
}

func TestCoerceColumn(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	t.Run("numeric with missing", func(t *testing.T) {
		col := c.CoerceColumn("A", []string{"1", "", "3", "NA"})
		assert.Equal(t, dataset.ColumnNumeric, col.Type)
		assert.Equal(t, []float64{1, 3}, col.Numbers())
		assert.Equal(t, 2, col.MissingCount())
	})

	t.Run("one text cell makes the column categorical", func(t *testing.T) {
		col := c.CoerceColumn("B", []string{"1", "two", "3"})
		assert.Equal(t, dataset.ColumnCategorical, col.Type)
		assert.Equal(t, "two", col.Values[1].Text)
		assert.Equal(t, dataset.KindText, col.Values[0].Kind)
	})

	t.Run("all missing is numeric", func(t *testing.T) {
		col := c.CoerceColumn("C", []string{"", "NA"})
		assert.Equal(t, dataset.ColumnNumeric, col.Type)
		assert.Equal(t, 2, col.MissingCount())
	})
}
