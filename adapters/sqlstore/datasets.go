package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
)

// datasetRow mirrors the datasets table
type datasetRow struct {
	ID          int64          `db:"dataset_id"`
	Filename    string         `db:"filename"`
	FilePath    sql.NullString `db:"file_path"`
	UploadDate  dbTime         `db:"upload_date"`
	RowCount    sql.NullInt64  `db:"row_count"`
	ColumnCount sql.NullInt64  `db:"column_count"`
	ColumnNames sql.NullString `db:"columns_names"`
	Description sql.NullString `db:"description"`
}

func (r datasetRow) toDomain() (*dataset.Dataset, error) {
	ds := &dataset.Dataset{
		ID:          core.DatasetID(r.ID),
		Name:        r.Filename,
		SourcePath:  r.FilePath.String,
		CreatedAt:   r.UploadDate.Time,
		RowCount:    int(r.RowCount.Int64),
		ColumnCount: int(r.ColumnCount.Int64),
		Description: r.Description.String,
		ColumnNames: []string{},
	}
	if r.ColumnNames.Valid && r.ColumnNames.String != "" {
		if err := json.Unmarshal([]byte(r.ColumnNames.String), &ds.ColumnNames); err != nil {
			return nil, core.NewPersistenceError("decode column names", err)
		}
	}
	return ds, nil
}

const datasetColumns = `dataset_id, filename, file_path, upload_date, row_count, column_count, columns_names, description`

// RegisterDataset inserts an immutable dataset record
func (s *Store) RegisterDataset(ctx context.Context, reg dataset.Registration) (core.DatasetID, error) {
	var id int64
	err := s.withTx(ctx, "register dataset", func(tx *sqlx.Tx) error {
		var err error
		id, err = s.insertDataset(ctx, tx, reg)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Registered dataset %d (%s, %d rows x %d columns)", id, reg.Name, reg.RowCount, reg.ColumnCount)
	return core.DatasetID(id), nil
}

func (s *Store) insertDataset(ctx context.Context, tx *sqlx.Tx, reg dataset.Registration) (int64, error) {
	names := reg.ColumnNames
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return 0, core.NewPersistenceError("encode column names", err)
	}

	var id int64
	query := tx.Rebind(`INSERT INTO datasets (
		filename, file_path, upload_date, row_count, column_count, columns_names, description
	) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING dataset_id`)
	if err := tx.QueryRowxContext(ctx, query,
		reg.Name, nullString(reg.SourceLabel), s.timestamp(), reg.RowCount, reg.ColumnCount,
		string(namesJSON), nullString(reg.Description),
	).Scan(&id); err != nil {
		return 0, core.NewPersistenceError("register dataset", err)
	}
	return id, nil
}

// GetDataset retrieves a dataset by its id
func (s *Store) GetDataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	var row datasetRow
	query := s.db.Rebind(`SELECT ` + datasetColumns + ` FROM datasets WHERE dataset_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, int64(id)); err != nil {
		if isNoRows(err) {
			return nil, core.NewNotFoundError("dataset", int64(id))
		}
		return nil, core.NewPersistenceError("get dataset", err)
	}
	return row.toDomain()
}

// GetAllDatasets lists every dataset, newest first
func (s *Store) GetAllDatasets(ctx context.Context) ([]*dataset.Dataset, error) {
	var rows []datasetRow
	query := `SELECT ` + datasetColumns + ` FROM datasets ORDER BY upload_date DESC, dataset_id DESC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, core.NewPersistenceError("list datasets", err)
	}

	out := make([]*dataset.Dataset, 0, len(rows))
	for _, r := range rows {
		ds, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
