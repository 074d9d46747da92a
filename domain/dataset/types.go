package dataset

import (
	"time"

	"statcalc/domain/core"
)

// Dataset represents a registered, immutable dataset record
type Dataset struct {
	ID          core.DatasetID `json:"dataset_id" db:"dataset_id"`
	Name        string         `json:"filename" db:"filename"`
	SourcePath  string         `json:"file_path,omitempty" db:"file_path"`
	CreatedAt   time.Time      `json:"upload_date" db:"upload_date"`
	RowCount    int            `json:"row_count" db:"row_count"`
	ColumnCount int            `json:"column_count" db:"column_count"`
	ColumnNames []string       `json:"columns_names"`
	Description string         `json:"description,omitempty" db:"description"`
}

// Registration holds what the store needs to create a Dataset record
type Registration struct {
	Name        string
	SourceLabel string
	ColumnNames []string
	RowCount    int
	ColumnCount int
	Description string
}

// NewRegistration describes a table for registration under the given name and source label
func NewRegistration(name, sourceLabel string, t *Table) Registration {
	return Registration{
		Name:        name,
		SourceLabel: sourceLabel,
		ColumnNames: t.ColumnNames(),
		RowCount:    t.RowCount(),
		ColumnCount: t.ColumnCount(),
	}
}

// ColumnDescriptor is the read-only view of a column offered to display layers
type ColumnDescriptor struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	MissingCount int        `json:"missing_count"`
}

// Summary is the whole-table overview shown before analysis
type Summary struct {
	Rows               int `json:"rows"`
	Columns            int `json:"columns"`
	MissingValues      int `json:"missing_values"`
	NumericColumns     int `json:"numeric_columns"`
	CategoricalColumns int `json:"categorical_columns"`
}
