package excel

// RawData is a parsed sheet before type coercion: a header row plus data rows
type RawData struct {
	Headers []string
	Rows    [][]string
}

// Column returns the raw cells of column j; short rows read as empty cells
func (d *RawData) Column(j int) []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}
