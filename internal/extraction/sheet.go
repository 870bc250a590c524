package extraction

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// RawSheet is the untyped cell grid of one worksheet, with no row
// interpreted as column titles. It is transient: built per file and
// discarded once the structured view exists.
type RawSheet [][]string

// ReadRawSheet loads the first worksheet of a workbook as a raw grid.
// Only the first sheet is read; anything on later sheets is out of scope.
// Legacy OLE .xls files cannot be opened and fail here, which the caller
// reports as an unreadable file.
func ReadRawSheet(path string) (RawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return RawSheet(rows), nil
}

// StructuredView re-interprets the raw grid using the located header row
// as column titles, returning the header labels and the data rows below
// them.
func StructuredView(sheet RawSheet, headerRow int) (headers []string, records [][]string, err error) {
	if headerRow < 0 || headerRow >= len(sheet) {
		return nil, nil, fmt.Errorf("header row %d outside sheet of %d rows", headerRow, len(sheet))
	}
	return sheet[headerRow], sheet[headerRow+1:], nil
}
