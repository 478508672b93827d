package export

import (
	"github.com/xuri/excelize/v2"

	"minhng/pricewatch/pkg/errors"
)

const sheetName = "Sheet1"

// ExcelExporter writes the computed table to a local xlsx snapshot at a
// fixed path, overwriting the previous run's file.
type ExcelExporter struct {
	path string
}

// NewExcelExporter creates an exporter targeting path
func NewExcelExporter(path string) *ExcelExporter {
	return &ExcelExporter{path: path}
}

// Path returns the artifact location
func (e *ExcelExporter) Path() string {
	return e.path
}

// Export writes the records (header row first) to the artifact file
func (e *ExcelExporter) Export(records [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	for r, record := range records {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.NewSheet("excel", "invalid cell coordinates", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return errors.NewSheet("excel", "failed to set cell "+cell, err)
			}
		}
	}

	if err := f.SaveAs(e.path); err != nil {
		return errors.NewSheet("excel", "failed to save "+e.path, err)
	}
	return nil
}
