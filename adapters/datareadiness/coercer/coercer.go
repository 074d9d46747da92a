package coercer

import (
	"math"
	"strconv"
	"strings"

	"statcalc/domain/dataset"
)

// TypeCoercer turns raw cell text into typed table columns
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of present values that must parse as numbers
	MissingTokens    []string `json:"missing_tokens"`
	Lenient          bool     `json:"lenient"` // accept currency symbols, percents, (123) negatives and thousands separators
}

// DefaultMissingTokens are the cell texts read as missing values
var DefaultMissingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// DefaultCoercionConfig requires every present value of a numeric column to parse
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		MissingTokens:    DefaultMissingTokens,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	if config.MissingTokens == nil {
		config.MissingTokens = DefaultMissingTokens
	}
	if config.NumericThreshold <= 0 || config.NumericThreshold > 1 {
		config.NumericThreshold = 1.0
	}
	return &TypeCoercer{config: config}
}

// IsMissing reports whether a raw cell denotes a missing value
func (c *TypeCoercer) IsMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	for _, tok := range c.config.MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// ParseNumeric parses a raw cell as a finite number
func (c *TypeCoercer) ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if c.config.Lenient {
		s = normalizeLenient(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// AnalyzeTypeDistribution counts how many present values parse as numbers
func (c *TypeCoercer) AnalyzeTypeDistribution(raw []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(raw)}
	for _, v := range raw {
		if c.IsMissing(v) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.ParseNumeric(v); ok {
			analysis.NumericCount++
		}
	}
	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// CoerceColumn infers the column type and converts every cell.
// A column with no present values is numeric.
func (c *TypeCoercer) CoerceColumn(name string, raw []string) *dataset.Column {
	analysis := c.AnalyzeTypeDistribution(raw)
	col := &dataset.Column{Name: name, Type: analysis.RecommendedType, Values: make([]dataset.Value, len(raw))}
	for i, v := range raw {
		col.Values[i] = c.CoerceValue(v, col.Type)
	}
	return col
}

// CoerceValue converts one cell for a column of the given type. In a numeric
// column below a full threshold, unparseable cells become missing.
func (c *TypeCoercer) CoerceValue(raw string, t dataset.ColumnType) dataset.Value {
	if c.IsMissing(raw) {
		return dataset.Missing()
	}
	if t == dataset.ColumnNumeric {
		if f, ok := c.ParseNumeric(raw); ok {
			return dataset.Number(f)
		}
		return dataset.Missing()
	}
	return dataset.Text(raw)
}

func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ColumnType {
	if analysis.ValidCount == 0 || analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.ColumnNumeric
	}
	return dataset.ColumnCategorical
}

// normalizeLenient handles parentheses for negatives, currency symbols,
// percent signs and thousands separators: "(1,234.50 $)" -> "-1234.50"
func normalizeLenient(s string) string {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		negative = true
	}
	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSpace(s)

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod && strings.LastIndex(s, ",") > strings.LastIndex(s, "."):
		// European: 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}
	s = strings.ReplaceAll(s, " ", "")

	if negative {
		s = "-" + s
	}
	return s
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                `json:"total_count"`
	ValidCount      int                `json:"valid_count"`
	NumericCount    int                `json:"numeric_count"`
	NumericRatio    float64            `json:"numeric_ratio"`
	RecommendedType dataset.ColumnType `json:"recommended_type"`
}
