package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"statcalc/adapters/datareadiness/coercer"
	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/internal"
)

// DataReader reads delimited text and Excel workbooks into tables
type DataReader struct {
	config  ReaderConfig
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and delimited files
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		logger:  logger.WithComponent("DataReader"),
	}
}

// fileKind classifies a path by extension
func fileKind(path string) (kind string, delim rune, err error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return "csv", ',', nil
	case ".tsv":
		return "csv", '\t', nil
	case ".txt":
		return "csv", 0, nil
	case ".xlsx", ".xlsm":
		return "xlsx", 0, nil
	case ".xls":
		return "", 0, fmt.Errorf("%w: legacy .xls workbooks cannot be read, save the file as .xlsx", core.ErrUnsupportedFormat)
	default:
		return "", 0, fmt.Errorf("%w: %q (want .csv, .tsv, .txt, .xlsx or .xlsm)", core.ErrUnsupportedFormat, ext)
	}
}

// ReadTable parses the file at path into a typed table
func (r *DataReader) ReadTable(ctx context.Context, path string) (*dataset.Table, error) {
	kind, delim, err := fileKind(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.logger.Debug("Starting to read %s file: %s", kind, path)

	var raw *RawData
	switch kind {
	case "csv":
		raw, err = r.readDelimited(path, delim)
	default:
		raw, err = r.readWorkbook(path)
	}
	if err != nil {
		return nil, err
	}

	table := r.BuildTable(raw)
	r.logger.Info("%s read in %.2fms (%d columns, %d rows)",
		filepath.Base(path), float64(time.Since(start).Nanoseconds())/1e6, table.ColumnCount(), table.RowCount())
	return table, nil
}

// BuildTable coerces raw cells into typed columns
func (r *DataReader) BuildTable(raw *RawData) *dataset.Table {
	columns := make([]*dataset.Column, len(raw.Headers))
	for j, name := range raw.Headers {
		columns[j] = r.coercer.CoerceColumn(name, raw.Column(j))
	}
	return dataset.NewTable(columns...)
}

func (r *DataReader) readDelimited(path string, delim rune) (*RawData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrParse, err)
	}
	defer file.Close()

	if delim == 0 {
		delim, err = sniffDelimiter(file)
		if err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrParse, filepath.Base(path), err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no columns to parse", core.ErrParse, filepath.Base(path))
	}

	// Excel's "CSV UTF-8" export starts with a byte-order mark.
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}

	width := len(rows[0])
	for i, row := range rows[1:] {
		if len(row) > width {
			return nil, fmt.Errorf("%w: %s: expected %d fields in line %d, saw %d",
				core.ErrParse, filepath.Base(path), width, i+2, len(row))
		}
	}
	return &RawData{Headers: normalizeHeaders(rows[0]), Rows: rows[1:]}, nil
}

// sniffDelimiter picks tab, semicolon or comma from the first line of a .txt file
func sniffDelimiter(file *os.File) (rune, error) {
	buf := make([]byte, 4096)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %w", core.ErrParse, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrParse, err)
	}
	first, _, _ := strings.Cut(string(buf[:n]), "\n")
	best, bestCount := ',', strings.Count(first, ",")
	for _, d := range []rune{'\t', ';', '|'} {
		if c := strings.Count(first, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best, nil
}

// readWorkbook reads the configured sheet, or the first one
func (r *DataReader) readWorkbook(path string) (*RawData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook %s: %w", core.ErrParse, filepath.Base(path), err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", core.ErrParse, filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", core.ErrParse, sheet, err)
	}

	// The header is the first non-blank row.
	kept := rows
	for len(kept) > 0 && isBlankRecord(kept[0]) {
		kept = kept[1:]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no columns to parse", core.ErrParse, sheet)
	}

	// Cells to the right of the header row become unnamed columns.
	header := kept[0]
	for _, row := range kept[1:] {
		for len(header) < len(row) {
			header = append(header, "")
		}
	}
	return &RawData{Headers: normalizeHeaders(header), Rows: kept[1:]}, nil
}

// normalizeHeaders trims names, labels blanks "Unnamed: i" and suffixes repeats "A.1", "A.2"
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for seen[name] > 0 {
			name = base + "." + strconv.Itoa(seen[base])
			seen[base]++
		}
		seen[name]++
		headers[i] = name
	}
	return headers
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
