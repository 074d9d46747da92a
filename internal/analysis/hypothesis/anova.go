package hypothesis

import (
	"statcalc/domain/core"
	domainstats "statcalc/domain/stats"
	"statcalc/internal/analysis"
)

// minANOVAGroups is the smallest number of groups a one-way ANOVA accepts here
const minANOVAGroups = 3

// anova runs a one-way ANOVA with each selected column as one group
func (e *Engine) anova(src analysis.Source, req Request) (*domainstats.TestReport, error) {
	cols, err := lookupDistinct(src, req.Columns)
	if err != nil {
		return nil, err
	}
	if len(cols) < minANOVAGroups {
		return nil, core.NewInsufficientGroupsError(len(cols), minANOVAGroups)
	}
	samples, err := numericSamples(cols)
	if err != nil {
		return nil, err
	}

	k := len(samples)
	total, sum := 0, 0.0
	groups := make([]domainstats.GroupStats, k)
	sizes := make([]int, k)
	means := make([]float64, k)
	for i, s := range samples {
		groups[i] = groupStats(cols[i].Name, s)
		sizes[i] = len(s)
		means[i] = groups[i].Mean.Float()
		total += len(s)
		for _, x := range s {
			sum += x
		}
	}
	grand := sum / float64(total)

	var ssb, ssw float64
	for i, s := range samples {
		d := means[i] - grand
		ssb += float64(len(s)) * d * d
		for _, x := range s {
			dx := x - means[i]
			ssw += dx * dx
		}
	}

	dfb := float64(k - 1)
	dfw := float64(total - k)
	msb := ssb / dfb
	msw := ssw / dfw
	f := msb / msw
	if ssb == 0 && dfw > 0 {
		// identical group means, including the all-constant case
		f = 0
	}

	e.logger.Trace("anova: k=%d N=%d ssb=%g ssw=%g", k, total, ssb, ssw)
	if dfw <= 0 {
		e.logger.Warn("anova: only %d observations for %d groups", total, k)
	}

	return &domainstats.TestReport{
		Columns:       columnNames(cols),
		SampleSizes:   sizes,
		Groups:        groups,
		StatisticName: "f",
		Statistic:     domainstats.Stat(f),
		DF:            domainstats.Stat(dfb),
		DF2:           domainstats.Stat(dfw),
		PValue:        domainstats.Stat(e.dist.FTestPValue(f, dfb, dfw)),
		ANOVA: &domainstats.ANOVATable{
			SSBetween: domainstats.Stat(ssb),
			SSWithin:  domainstats.Stat(ssw),
			MSBetween: domainstats.Stat(msb),
			MSWithin:  domainstats.Stat(msw),
		},
	}, nil
}
