package stats

import (
	"fmt"
	"math"
	"strconv"
)

// TestKind selects exactly one hypothesis test per invocation
type TestKind string

const (
	TestOneSampleT TestKind = "one_sample_t"
	TestTwoSampleT TestKind = "two_sample_t"
	TestPairedT    TestKind = "paired_t"
	TestChiSquare  TestKind = "chi_square"
	TestANOVA      TestKind = "anova"
)

// Title returns the display name of the test
func (k TestKind) Title() string {
	switch k {
	case TestOneSampleT:
		return "One-sample t-test"
	case TestTwoSampleT:
		return "Two-sample t-test"
	case TestPairedT:
		return "Paired t-test"
	case TestChiSquare:
		return "Chi-square test of independence"
	case TestANOVA:
		return "One-way ANOVA"
	default:
		return string(k)
	}
}

// ParseTestKind accepts the canonical names and a few short forms
func ParseTestKind(s string) (TestKind, error) {
	switch s {
	case "one_sample_t", "one-sample", "ttest-one", "one_sample":
		return TestOneSampleT, nil
	case "two_sample_t", "two-sample", "ttest-two", "two_sample", "independent":
		return TestTwoSampleT, nil
	case "paired_t", "paired", "ttest-paired":
		return TestPairedT, nil
	case "chi_square", "chi-square", "chi2", "chisq":
		return TestChiSquare, nil
	case "anova", "one_way_anova", "f-test":
		return TestANOVA, nil
	}
	return "", fmt.Errorf("unknown test %q", s)
}

// Stat is a float that serialises non-finite values as JSON null
type Stat float64

func (s Stat) Float() float64 { return float64(s) }

func (s Stat) IsFinite() bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.IsFinite() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(s), 'g', -1, 64), nil
}

// GroupStats describes one participating sample
type GroupStats struct {
	Column string `json:"column"`
	N      int    `json:"n"`
	Mean   Stat   `json:"mean"`
	SD     Stat   `json:"sd"`
}

// Interval is a two-sided confidence interval
type Interval struct {
	Level Stat `json:"level"`
	Lower Stat `json:"lower"`
	Upper Stat `json:"upper"`
}

// ContingencyTable is the cross-tabulation used by the chi-square test
type ContingencyTable struct {
	RowColumn    string      `json:"row_column"`
	ColumnColumn string      `json:"column_column"`
	RowLabels    []string    `json:"row_labels"`
	ColumnLabels []string    `json:"column_labels"`
	Observed     [][]int     `json:"observed"`
	Expected     [][]float64 `json:"expected"`
	Total        int         `json:"total"`
}

// AssumptionCheck records the outcome of a test's validity check
type AssumptionCheck struct {
	Name        string `json:"name"`
	MinExpected Stat   `json:"min_expected_frequency"`
	Threshold   Stat   `json:"threshold"`
	Reliable    bool   `json:"reliable"`
	Message     string `json:"message"`
}

// ANOVATable holds the variance decomposition of a one-way ANOVA
type ANOVATable struct {
	SSBetween Stat `json:"ss_between"`
	SSWithin  Stat `json:"ss_within"`
	MSBetween Stat `json:"ms_between"`
	MSWithin  Stat `json:"ms_within"`
}

// TestReport is the structured outcome of one hypothesis test
type TestReport struct {
	Kind          TestKind     `json:"test_type"`
	Title         string       `json:"title"`
	Columns       []string     `json:"columns"`
	SampleSizes   []int        `json:"sample_sizes"`
	Groups        []GroupStats `json:"groups"`
	StatisticName string       `json:"statistic_name"`
	Statistic     Stat         `json:"statistic"`
	DF            Stat         `json:"df"`
	DF2           Stat         `json:"df2,omitempty"`
	PValue        Stat         `json:"p_value"`
	Alpha         float64      `json:"alpha"`
	Significant   bool         `json:"significant"`
	Decision      string       `json:"decision"`

	PopulationMean     *float64          `json:"population_mean,omitempty"`
	EqualVariance      bool              `json:"equal_variance,omitempty"`
	PairCount          int               `json:"n_pairs,omitempty"`
	MeanDifference     *Stat             `json:"mean_difference,omitempty"`
	DifferenceSign     string            `json:"difference_sign,omitempty"`
	EffectSize         *Stat             `json:"effect_size,omitempty"`
	ConfidenceInterval *Interval         `json:"confidence_interval,omitempty"`
	Contingency        *ContingencyTable `json:"contingency,omitempty"`
	Assumption         *AssumptionCheck  `json:"assumption_check,omitempty"`
	ANOVA              *ANOVATable       `json:"anova,omitempty"`
}

// Classify applies the decision rule p < alpha; a non-finite p is never significant
func (r *TestReport) Classify() {
	r.Significant = r.PValue.IsFinite() && r.PValue.Float() < r.Alpha
	if r.Significant {
		r.Decision = fmt.Sprintf("reject H0 at alpha=%g", r.Alpha)
	} else {
		r.Decision = fmt.Sprintf("fail to reject H0 at alpha=%g", r.Alpha)
	}
}

// GroupKey names a per-sample metric, e.g. "group:Before:mean". The prefix keeps
// column names from colliding with the report-level keys.
func GroupKey(column, metric string) string {
	return "group:" + column + ":" + metric
}

// Results flattens the report into the metrics forwarded to the store
func (r *TestReport) Results() ScalarResults {
	out := ScalarResults{
		r.StatisticName + "_statistic": r.Statistic.Float(),
		"p_value":                      r.PValue.Float(),
		"alpha":                        r.Alpha,
		"significant":                  r.Significant,
		"df":                           r.DF.Float(),
	}
	if r.Kind == TestANOVA {
		out["df_within"] = r.DF2.Float()
	}
	for _, g := range r.Groups {
		out[GroupKey(g.Column, "n")] = g.N
		out[GroupKey(g.Column, "mean")] = g.Mean.Float()
		out[GroupKey(g.Column, "sd")] = g.SD.Float()
	}
	if r.PopulationMean != nil {
		out["population_mean"] = *r.PopulationMean
	}
	if r.Kind == TestPairedT {
		out["n_pairs"] = r.PairCount
	}
	if r.MeanDifference != nil {
		out["mean_difference"] = r.MeanDifference.Float()
	}
	if r.EffectSize != nil {
		out["cohens_d"] = r.EffectSize.Float()
	}
	if r.ConfidenceInterval != nil {
		out["ci_lower"] = r.ConfidenceInterval.Lower.Float()
		out["ci_upper"] = r.ConfidenceInterval.Upper.Float()
	}
	if r.Contingency != nil {
		out["n"] = r.Contingency.Total
		out["n_row_categories"] = len(r.Contingency.RowLabels)
		out["n_column_categories"] = len(r.Contingency.ColumnLabels)
	}
	if r.Assumption != nil {
		out["min_expected_frequency"] = r.Assumption.MinExpected.Float()
		out["assumption_reliable"] = r.Assumption.Reliable
	}
	return out
}
