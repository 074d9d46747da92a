package hypothesis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"statcalc/domain/core"
	domainstats "statcalc/domain/stats"
	"statcalc/internal/analysis"
)

// sampleStats returns n, mean and sample standard deviation (NaN below two values)
func sampleStats(values []float64) (n int, mean, sd float64) {
	n = len(values)
	if n == 0 {
		return 0, math.NaN(), math.NaN()
	}
	mean, _ = stats.Mean(values)
	sd = math.NaN()
	if n >= 2 {
		sd, _ = stats.StandardDeviationSample(values)
	}
	return n, mean, sd
}

func groupStats(column string, values []float64) domainstats.GroupStats {
	n, mean, sd := sampleStats(values)
	return domainstats.GroupStats{Column: column, N: n, Mean: domainstats.Stat(mean), SD: domainstats.Stat(sd)}
}

func statPtr(f float64) *domainstats.Stat {
	s := domainstats.Stat(f)
	return &s
}

func differenceSign(d float64) string {
	switch {
	case math.IsNaN(d):
		return ""
	case d > 0:
		return "positive"
	case d < 0:
		return "negative"
	default:
		return "zero"
	}
}

// confidenceInterval is center ± t(1-alpha/2, df) * se
func (e *Engine) confidenceInterval(center, se, df, alpha float64) *domainstats.Interval {
	margin := e.dist.TCritical(alpha, df) * se
	return &domainstats.Interval{
		Level: domainstats.Stat(1 - alpha),
		Lower: domainstats.Stat(center - margin),
		Upper: domainstats.Stat(center + margin),
	}
}

func (e *Engine) alphaFor(req Request) float64 {
	if req.Alpha == 0 {
		return e.defaultAlpha
	}
	return req.Alpha
}

// oneSampleT tests the column mean against the hypothesised population mean
func (e *Engine) oneSampleT(src analysis.Source, req Request) (*domainstats.TestReport, error) {
	cols, err := requireColumns(src, req.Columns, 1, domainstats.TestOneSampleT)
	if err != nil {
		return nil, err
	}
	if req.PopulationMean == nil {
		return nil, fmt.Errorf("%w: one-sample t-test needs a population mean", core.ErrInvalidInput)
	}
	samples, err := numericSamples(cols)
	if err != nil {
		return nil, err
	}

	mu := *req.PopulationMean
	n, mean, sd := sampleStats(samples[0])
	df := float64(n - 1)
	se := sd / math.Sqrt(float64(n))
	t := (mean - mu) / se
	diff := mean - mu

	return &domainstats.TestReport{
		Columns:            columnNames(cols),
		SampleSizes:        []int{n},
		Groups:             []domainstats.GroupStats{groupStats(cols[0].Name, samples[0])},
		StatisticName:      "t",
		Statistic:          domainstats.Stat(t),
		DF:                 domainstats.Stat(df),
		PValue:             domainstats.Stat(e.dist.TTestPValue(t, df)),
		PopulationMean:     &mu,
		MeanDifference:     statPtr(diff),
		DifferenceSign:     differenceSign(diff),
		EffectSize:         statPtr(diff / sd),
		ConfidenceInterval: e.confidenceInterval(mean, se, df, e.alphaFor(req)),
	}, nil
}

// twoSampleT compares two independent samples; missing values are dropped per column
func (e *Engine) twoSampleT(src analysis.Source, req Request) (*domainstats.TestReport, error) {
	cols, err := requireColumns(src, req.Columns, 2, domainstats.TestTwoSampleT)
	if err != nil {
		return nil, err
	}
	samples, err := numericSamples(cols)
	if err != nil {
		return nil, err
	}

	na, ma, sa := sampleStats(samples[0])
	nb, mb, sb := sampleStats(samples[1])
	va, vb := sa*sa, sb*sb
	fa, fb := float64(na), float64(nb)

	pooled := math.Sqrt(((fa-1)*va + (fb-1)*vb) / (fa + fb - 2))

	var t, df float64
	if req.PooledVariance() {
		df = fa + fb - 2
		t = (ma - mb) / (pooled * math.Sqrt(1/fa+1/fb))
	} else {
		qa, qb := va/fa, vb/fb
		t = (ma - mb) / math.Sqrt(qa+qb)
		df = (qa + qb) * (qa + qb) / (qa*qa/(fa-1) + qb*qb/(fb-1))
	}
	diff := ma - mb

	return &domainstats.TestReport{
		Columns:     columnNames(cols),
		SampleSizes: []int{na, nb},
		Groups: []domainstats.GroupStats{
			groupStats(cols[0].Name, samples[0]),
			groupStats(cols[1].Name, samples[1]),
		},
		StatisticName:  "t",
		Statistic:      domainstats.Stat(t),
		DF:             domainstats.Stat(df),
		PValue:         domainstats.Stat(e.dist.TTestPValue(t, df)),
		EqualVariance:  req.PooledVariance(),
		MeanDifference: statPtr(diff),
		DifferenceSign: differenceSign(diff),
		EffectSize:     statPtr(diff / pooled),
	}, nil
}

// pairedT tests the row-wise differences of rows where both columns are present
func (e *Engine) pairedT(src analysis.Source, req Request) (*domainstats.TestReport, error) {
	cols, err := requireColumns(src, req.Columns, 2, domainstats.TestPairedT)
	if err != nil {
		return nil, err
	}
	// validates types and per-column emptiness
	if _, err := numericSamples(cols); err != nil {
		return nil, err
	}

	a, b := cols[0], cols[1]
	var xs, ys, diffs []float64
	for i := range a.Values {
		if a.Values[i].IsNumber() && b.Values[i].IsNumber() {
			xs = append(xs, a.Values[i].Num)
			ys = append(ys, b.Values[i].Num)
			diffs = append(diffs, a.Values[i].Num-b.Values[i].Num)
		}
	}
	if len(diffs) == 0 {
		return nil, fmt.Errorf("%w: %q and %q share no complete rows", core.ErrEmptyColumn, a.Name, b.Name)
	}

	n, meanDiff, sdDiff := sampleStats(diffs)
	df := float64(n - 1)
	se := sdDiff / math.Sqrt(float64(n))
	t := meanDiff / se

	return &domainstats.TestReport{
		Columns:     columnNames(cols),
		SampleSizes: []int{n, n},
		Groups: []domainstats.GroupStats{
			groupStats(a.Name, xs),
			groupStats(b.Name, ys),
		},
		StatisticName:      "t",
		Statistic:          domainstats.Stat(t),
		DF:                 domainstats.Stat(df),
		PValue:             domainstats.Stat(e.dist.TTestPValue(t, df)),
		PairCount:          n,
		MeanDifference:     statPtr(meanDiff),
		DifferenceSign:     differenceSign(meanDiff),
		EffectSize:         statPtr(meanDiff / sdDiff),
		ConfidenceInterval: e.confidenceInterval(meanDiff, se, df, e.alphaFor(req)),
	}, nil
}
