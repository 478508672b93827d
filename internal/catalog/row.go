package catalog

import (
	"fmt"
)

// Sheet column names. These match the live spreadsheet headers and must not
// be renamed without migrating the sheet.
const (
	ColSKU             = "model"
	ColCompetitorURL   = "url1"
	ColPrice           = "price1"
	ColPreviousPrice   = "price-1"
	ColChange          = "change"
	ColPercentChange   = "percent_change"
	ColUpdatePrice     = "update_price"
	ColStorefrontPrice = "price2"
	ColDate            = "date"
)

// computedColumns are created empty when the sheet does not carry them yet.
var computedColumns = []string{
	ColPrice,
	ColPreviousPrice,
	ColChange,
	ColPercentChange,
	ColUpdatePrice,
	ColStorefrontPrice,
	ColDate,
}

// Table is an in-memory copy of the shared sheet. It preserves the column
// order and every column it does not understand, so a load followed by a
// write-back leaves the sheet unchanged.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// ParseTable builds a Table from raw sheet records (header row first).
// Missing computed columns are appended to the header with empty cells.
func ParseTable(records [][]interface{}) *Table {
	t := &Table{index: make(map[string]int)}
	if len(records) == 0 {
		t.Header = append([]string{ColSKU, ColCompetitorURL}, computedColumns...)
		t.rebuildIndex()
		return t
	}

	for _, cell := range records[0] {
		t.Header = append(t.Header, cellString(cell))
	}
	t.rebuildIndex()

	for _, col := range computedColumns {
		if _, ok := t.index[col]; !ok {
			t.Header = append(t.Header, col)
			t.index[col] = len(t.Header) - 1
		}
	}

	for _, record := range records[1:] {
		row := make([]string, len(t.Header))
		for i := range record {
			if i >= len(row) {
				break
			}
			row[i] = cellString(record[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (t *Table) rebuildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		t.index[name] = i
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Get returns the cell value for a column in the given row, or "" when the
// column does not exist.
func (t *Table) Get(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell value for a column in the given row. Unknown columns are
// ignored rather than created mid-run.
func (t *Table) Set(row int, col string, value string) {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][i] = value
}

// SKU returns the row's product identifier
func (t *Table) SKU(row int) string {
	return t.Get(row, ColSKU)
}

// CompetitorURL returns the row's competitor URL, possibly empty
func (t *Table) CompetitorURL(row int) string {
	return t.Get(row, ColCompetitorURL)
}

// Records converts the table back to sheet records, header row first.
func (t *Table) Records() [][]interface{} {
	records := make([][]interface{}, 0, len(t.Rows)+1)

	header := make([]interface{}, len(t.Header))
	for i, name := range t.Header {
		header[i] = name
	}
	records = append(records, header)

	for _, row := range t.Rows {
		record := make([]interface{}, len(row))
		for i, cell := range row {
			record[i] = cell
		}
		records = append(records, record)
	}
	return records
}

// Objects returns the table as one map per row, keyed by header name.
// Used by the JSON table endpoint.
func (t *Table) Objects() []map[string]string {
	objects := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		object := make(map[string]string, len(t.Header))
		for i, name := range t.Header {
			object[name] = row[i]
		}
		objects = append(objects, object)
	}
	return objects
}

func cellString(cell interface{}) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", cell)
}
