package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/internal"
	"statcalc/ports"
)

// DataSession owns the loaded dataset: an original snapshot captured at load
// and a current table mutated by cleaning. It is not safe for concurrent use;
// callers that share a session serialise access themselves.
type DataSession struct {
	id       core.SessionID
	recorder ports.LineageRecorder
	reader   ports.TableReader
	logger   *internal.Logger
	now      func() time.Time

	original *dataset.Table
	current  *dataset.Table

	// lineage of the load and of the table currently held
	source  Handle
	lineage Handle
}

// Handle identifies the dataset record behind a snapshot
type Handle struct {
	ID          core.DatasetID `json:"dataset_id"`
	Name        string         `json:"filename"`
	SourcePath  string         `json:"file_path"`
	Rows        int            `json:"row_count"`
	Columns     int            `json:"column_count"`
	ColumnNames []string       `json:"columns_names"`
}

// Option customises a DataSession
type Option func(*DataSession)

// WithLogger sets the session logger
func WithLogger(l *internal.Logger) Option {
	return func(s *DataSession) { s.logger = l }
}

// WithClock overrides the time source used for cleaning reports
func WithClock(now func() time.Time) Option {
	return func(s *DataSession) { s.now = now }
}

// WithSessionID fixes the session id instead of generating one
func WithSessionID(id core.SessionID) Option {
	return func(s *DataSession) { s.id = id }
}

// New creates an empty session
func New(recorder ports.LineageRecorder, reader ports.TableReader, opts ...Option) *DataSession {
	s := &DataSession{
		recorder: recorder,
		reader:   reader,
		logger:   internal.DefaultLogger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id.IsEmpty() {
		s.id = core.NewSessionID()
	}
	s.logger = s.logger.WithComponent("Session")
	return s
}

// SessionID returns the id stamped on lineage descriptions
func (s *DataSession) SessionID() core.SessionID { return s.id }

// Loaded reports whether a dataset is held
func (s *DataSession) Loaded() bool { return s.current != nil }

// Load parses the file and registers it. On any failure the previous
// session state is kept.
func (s *DataSession) Load(ctx context.Context, path string) (Handle, error) {
	table, err := s.reader.ReadTable(ctx, path)
	if err != nil {
		s.logger.Warn("load %s failed: %v", path, err)
		return Handle{}, err
	}

	reg := dataset.NewRegistration(filepath.Base(path), path, table)
	reg.Description = fmt.Sprintf("loaded by session %s", s.id)
	id, err := s.recorder.RegisterDataset(ctx, reg)
	if err != nil {
		return Handle{}, fmt.Errorf("register %s: %w", reg.Name, err)
	}

	handle := Handle{
		ID:          id,
		Name:        reg.Name,
		SourcePath:  path,
		Rows:        reg.RowCount,
		Columns:     reg.ColumnCount,
		ColumnNames: reg.ColumnNames,
	}
	s.original = table.Clone()
	s.current = table
	s.source = handle
	s.lineage = handle

	s.logger.Info("loaded %s as dataset %s (%d rows, %d columns)", handle.Name, id, handle.Rows, handle.Columns)
	return handle, nil
}

// Reset restores the current table from the original snapshot and points
// lineage back at the loaded dataset.
func (s *DataSession) Reset() error {
	if s.original == nil {
		return core.ErrNoOriginal
	}
	s.current = s.original.Clone()
	s.lineage = s.source
	s.logger.Info("reset to dataset %s", s.source.ID)
	return nil
}

// Clear drops both snapshots
func (s *DataSession) Clear() {
	s.original = nil
	s.current = nil
	s.source = Handle{}
	s.lineage = Handle{}
	s.logger.Debug("cleared")
}

// Current returns the handle of the dataset the current table belongs to
func (s *DataSession) Current() (Handle, error) {
	if s.current == nil {
		return Handle{}, core.ErrNoDataset
	}
	return s.lineage, nil
}

// DatasetID is the id analyses on the current table are recorded against
func (s *DataSession) DatasetID() (core.DatasetID, error) {
	h, err := s.Current()
	return h.ID, err
}

// ============================================================================
// READ-ONLY ACCESS
// ============================================================================

// ColumnNames returns the current column order; nil without a dataset
func (s *DataSession) ColumnNames() []string {
	if s.current == nil {
		return nil
	}
	return s.current.ColumnNames()
}

// Column returns the named column of the current table. The column must not be modified.
func (s *DataSession) Column(name string) (*dataset.Column, bool) {
	if s.current == nil {
		return nil, false
	}
	return s.current.Column(name)
}

// Columns describes the current columns, optionally restricted to the given types
func (s *DataSession) Columns(filter ...dataset.ColumnType) []dataset.ColumnDescriptor {
	if s.current == nil {
		return nil
	}
	out := make([]dataset.ColumnDescriptor, 0, len(s.current.Columns))
	for _, c := range s.current.Columns {
		if len(filter) > 0 && !containsType(filter, c.Type) {
			continue
		}
		out = append(out, c.Descriptor())
	}
	return out
}

func containsType(types []dataset.ColumnType, t dataset.ColumnType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// Shape returns rows and columns of the current table
func (s *DataSession) Shape() (rows, cols int) {
	return s.current.RowCount(), s.current.ColumnCount()
}

// Cell returns one cell of the current table
func (s *DataSession) Cell(row int, column string) (dataset.Value, error) {
	if s.current == nil {
		return dataset.Value{}, core.ErrNoDataset
	}
	col, ok := s.current.Column(column)
	if !ok {
		return dataset.Value{}, core.NewColumnNotFoundError(column, s.current.ColumnNames())
	}
	if row < 0 || row >= len(col.Values) {
		return dataset.Value{}, fmt.Errorf("%w: row %d out of range [0, %d)", core.ErrInvalidInput, row, len(col.Values))
	}
	return col.Values[row], nil
}

// Rows returns up to limit rows starting at offset, for tabular display
func (s *DataSession) Rows(offset, limit int) ([][]dataset.Value, error) {
	if s.current == nil {
		return nil, core.ErrNoDataset
	}
	n := s.current.RowCount()
	if offset < 0 {
		offset = 0
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	var out [][]dataset.Value
	for i := offset; i < end; i++ {
		out = append(out, s.current.Row(i))
	}
	return out, nil
}

// ColumnValues returns the present values of a numeric column, for charting
func (s *DataSession) ColumnValues(name string) ([]float64, error) {
	col, err := s.numericColumn(name)
	if err != nil {
		return nil, err
	}
	return col.Numbers(), nil
}

// Pair is one row where both columns are present
type Pair struct {
	Row int     `json:"row"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// PairedValues returns the row-aligned pairs of two numeric columns
func (s *DataSession) PairedValues(a, b string) ([]Pair, error) {
	x, err := s.numericColumn(a)
	if err != nil {
		return nil, err
	}
	y, err := s.numericColumn(b)
	if err != nil {
		return nil, err
	}
	var out []Pair
	for i := range x.Values {
		if x.Values[i].IsNumber() && y.Values[i].IsNumber() {
			out = append(out, Pair{Row: i, X: x.Values[i].Num, Y: y.Values[i].Num})
		}
	}
	return out, nil
}

func (s *DataSession) numericColumn(name string) (*dataset.Column, error) {
	if s.current == nil {
		return nil, core.ErrNoDataset
	}
	col, ok := s.current.Column(name)
	if !ok {
		return nil, core.NewColumnNotFoundError(name, s.current.ColumnNames())
	}
	if !col.IsNumeric() {
		return nil, core.NewNonNumericColumnError(name)
	}
	return col, nil
}
