package analysis

import "statcalc/domain/dataset"

// Source is the read-only view engines compute over. *dataset.Table and
// the data session both satisfy it.
type Source interface {
	ColumnNames() []string
	Column(name string) (*dataset.Column, bool)
}
