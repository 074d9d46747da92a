package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/jmoiron/sqlx"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
)

// DefaultHistoryLimit applies when GetHistory is called without a positive limit
const DefaultHistoryLimit = 10

// analysisRow mirrors analysis_history joined with the dataset filename
type analysisRow struct {
	ID             int64          `db:"analysis_id"`
	DatasetID      int64          `db:"dataset_id"`
	Filename       sql.NullString `db:"filename"`
	Name           sql.NullString `db:"analysis_name"`
	Date           dbTime         `db:"analysis_date"`
	Calculations   sql.NullString `db:"calculations_performed"`
	ResultsSummary sql.NullString `db:"results_summary"`
}

type resultRow struct {
	AnalysisID      int64           `db:"analysis_id"`
	ColumnName      sql.NullString  `db:"column_name"`
	CalculationType sql.NullString  `db:"calculation_type"`
	Value           sql.NullFloat64 `db:"result_value"`
}

// SaveAnalysis stores the record and one result row per metric, atomically
func (s *Store) SaveAnalysis(ctx context.Context, in stats.AnalysisInput) (core.AnalysisID, error) {
	enc, err := encodeAnalysis(in)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.withTx(ctx, "save analysis", func(tx *sqlx.Tx) error {
		var err error
		id, err = s.insertAnalysis(ctx, tx, in.DatasetID, enc)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Saved analysis %d (%s) against dataset %d", id, in.Name, in.DatasetID)
	return core.AnalysisID(id), nil
}

// RecordCleaning registers a derived dataset and saves the cleaning analysis
// against it in one transaction. in.DatasetID is replaced by the new dataset id.
func (s *Store) RecordCleaning(ctx context.Context, reg dataset.Registration, in stats.AnalysisInput) (core.DatasetID, core.AnalysisID, error) {
	enc, err := encodeAnalysis(in)
	if err != nil {
		return 0, 0, err
	}

	var datasetID, analysisID int64
	err = s.withTx(ctx, "record cleaning", func(tx *sqlx.Tx) error {
		var err error
		if datasetID, err = s.insertDataset(ctx, tx, reg); err != nil {
			return err
		}
		analysisID, err = s.insertAnalysis(ctx, tx, core.DatasetID(datasetID), enc)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Debug("Recorded %s: dataset %d, analysis %d", in.Name, datasetID, analysisID)
	return core.DatasetID(datasetID), core.AnalysisID(analysisID), nil
}

// encodedAnalysis is an analysis input with its JSON columns and result rows prepared
type encodedAnalysis struct {
	name         string
	calculations string
	summary      string
	results      stats.ResultSet
}

func encodeAnalysis(in stats.AnalysisInput) (*encodedAnalysis, error) {
	if in.Results == nil {
		return nil, fmt.Errorf("%w: analysis has no results", core.ErrInvalidInput)
	}
	calcs := in.Calculations
	if calcs == nil {
		calcs = []string{}
	}
	calcsJSON, err := json.Marshal(calcs)
	if err != nil {
		return nil, fmt.Errorf("%w: calculations: %w", core.ErrSerialization, err)
	}
	summaryJSON, err := json.Marshal(in.Results.Summary())
	if err != nil {
		return nil, fmt.Errorf("%w: results summary: %w", core.ErrSerialization, err)
	}
	return &encodedAnalysis{
		name:         in.Name,
		calculations: string(calcsJSON),
		summary:      string(summaryJSON),
		results:      in.Results,
	}, nil
}

func (s *Store) insertAnalysis(ctx context.Context, tx *sqlx.Tx, datasetID core.DatasetID, enc *encodedAnalysis) (int64, error) {
	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM datasets WHERE dataset_id = ?`), int64(datasetID)); err != nil {
		return 0, core.NewPersistenceError("save analysis", err)
	}
	if exists == 0 {
		return 0, core.NewNotFoundError("dataset", int64(datasetID))
	}

	var id int64
	insert := tx.Rebind(`INSERT INTO analysis_history (
		dataset_id, analysis_date, analysis_name, calculations_performed, results_summary
	) VALUES (?, ?, ?, ?, ?) RETURNING analysis_id`)
	if err := tx.QueryRowxContext(ctx, insert,
		int64(datasetID), s.timestamp(), enc.name, enc.calculations, enc.summary,
	).Scan(&id); err != nil {
		return 0, core.NewPersistenceError("save analysis", err)
	}

	rows, err := NormalizeResults(core.AnalysisID(id), enc.results)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO calculation_results (
		analysis_id, column_name, calculation_type, result_value
	) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return 0, core.NewPersistenceError("save analysis", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, id, r.ColumnName, r.CalculationType, nullFloat(r.Value)); err != nil {
			return 0, core.NewPersistenceError("save result row", err)
		}
	}
	return id, nil
}

// NormalizeResults flattens a result set into one row per leaf value.
// Scalar results land under the "overall" column.
func NormalizeResults(id core.AnalysisID, results stats.ResultSet) ([]stats.ResultRow, error) {
	var out []stats.ResultRow
	add := func(column string, m stats.Metrics) error {
		for _, key := range m.Keys() {
			v, err := toFloat(m[key])
			if err != nil {
				return fmt.Errorf("%w: %s/%s: %w", core.ErrSerialization, column, key, err)
			}
			out = append(out, stats.ResultRow{AnalysisID: id, ColumnName: column, CalculationType: key, Value: v})
		}
		return nil
	}

	switch r := results.(type) {
	case stats.PerColumnResults:
		for _, cm := range r {
			if err := add(cm.Column, cm.Metrics); err != nil {
				return nil, err
			}
		}
	case stats.ScalarResults:
		if err := add(stats.OverallColumn, stats.Metrics(r)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported result set %T", core.ErrSerialization, results)
	}
	return out, nil
}

// toFloat converts a numeric-like leaf to a nullable float; non-finite values become nil
func toFloat(v any) (*float64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *float64:
		if x == nil {
			return nil, nil
		}
		return stats.Float(*x), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", string(x))
		}
		return stats.Float(f), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return stats.Float(rv.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f := float64(rv.Int())
		return &f, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := float64(rv.Uint())
		return &f, nil
	case reflect.Bool:
		f := 0.0
		if rv.Bool() {
			f = 1
		}
		return &f, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return toFloat(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("value of type %T is not numeric", v)
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// GetHistory returns analysis summaries, most recent first
func (s *Store) GetHistory(ctx context.Context, limit int) ([]stats.AnalysisSummary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var rows []analysisRow
	query := s.db.Rebind(`SELECT a.analysis_id, a.dataset_id, d.filename, a.analysis_name, a.analysis_date,
			a.calculations_performed, a.results_summary
		FROM analysis_history a
		LEFT JOIN datasets d ON d.dataset_id = a.dataset_id
		ORDER BY a.analysis_date DESC, a.analysis_id DESC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, core.NewPersistenceError("get history", err)
	}

	out := make([]stats.AnalysisSummary, 0, len(rows))
	for _, r := range rows {
		calcs, err := decodeCalculations(r.Calculations)
		if err != nil {
			return nil, err
		}
		out = append(out, stats.AnalysisSummary{
			ID:           core.AnalysisID(r.ID),
			Name:         r.Name.String,
			CreatedAt:    r.Date.Time,
			DatasetName:  r.Filename.String,
			Calculations: calcs,
		})
	}
	return out, nil
}

// GetAnalysisDetails returns the record and its stored rows
func (s *Store) GetAnalysisDetails(ctx context.Context, id core.AnalysisID) (*stats.AnalysisDetails, error) {
	var r analysisRow
	query := s.db.Rebind(`SELECT a.analysis_id, a.dataset_id, d.filename, a.analysis_name, a.analysis_date,
			a.calculations_performed, a.results_summary
		FROM analysis_history a
		LEFT JOIN datasets d ON d.dataset_id = a.dataset_id
		WHERE a.analysis_id = ?`)
	if err := s.db.GetContext(ctx, &r, query, int64(id)); err != nil {
		if isNoRows(err) {
			return nil, core.NewNotFoundError("analysis", int64(id))
		}
		return nil, core.NewPersistenceError("get analysis", err)
	}

	calcs, err := decodeCalculations(r.Calculations)
	if err != nil {
		return nil, err
	}
	summary := json.RawMessage("null")
	if r.ResultsSummary.Valid && r.ResultsSummary.String != "" {
		summary = json.RawMessage(r.ResultsSummary.String)
	}

	var rows []resultRow
	rowsQuery := s.db.Rebind(`SELECT analysis_id, column_name, calculation_type, result_value
		FROM calculation_results WHERE analysis_id = ? ORDER BY result_id`)
	if err := s.db.SelectContext(ctx, &rows, rowsQuery, int64(id)); err != nil {
		return nil, core.NewPersistenceError("get result rows", err)
	}

	details := &stats.AnalysisDetails{
		Info: stats.AnalysisRecord{
			ID:             core.AnalysisID(r.ID),
			DatasetID:      core.DatasetID(r.DatasetID),
			DatasetName:    r.Filename.String,
			Name:           r.Name.String,
			CreatedAt:      r.Date.Time,
			Calculations:   calcs,
			ResultsSummary: summary,
		},
		Rows: make([]stats.ResultRow, 0, len(rows)),
	}
	for _, rr := range rows {
		row := stats.ResultRow{
			AnalysisID:      core.AnalysisID(rr.AnalysisID),
			ColumnName:      rr.ColumnName.String,
			CalculationType: rr.CalculationType.String,
		}
		if rr.Value.Valid {
			v := rr.Value.Float64
			row.Value = &v
		}
		details.Rows = append(details.Rows, row)
	}
	return details, nil
}

// DeleteAnalysis removes the result rows and then the record in one transaction
func (s *Store) DeleteAnalysis(ctx context.Context, id core.AnalysisID) error {
	err := s.withTx(ctx, "delete analysis", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM calculation_results WHERE analysis_id = ?`), int64(id)); err != nil {
			return core.NewPersistenceError("delete result rows", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM analysis_history WHERE analysis_id = ?`), int64(id))
		if err != nil {
			return core.NewPersistenceError("delete analysis", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return core.NewPersistenceError("delete analysis", err)
		}
		if n == 0 {
			return core.NewNotFoundError("analysis", int64(id))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("Deleted analysis %d", id)
	return nil
}

func decodeCalculations(raw sql.NullString) ([]string, error) {
	calcs := []string{}
	if !raw.Valid || raw.String == "" {
		return calcs, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &calcs); err != nil {
		return nil, core.NewPersistenceError("decode calculations", err)
	}
	return calcs, nil
}
