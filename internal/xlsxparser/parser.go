// =============================================================================
// Budget Builder - XLSX Export Reader
// =============================================================================
//
// Reads the budget export workbook. Two sheets are of interest:
//   - the main sheet: one budget row per spreadsheet row, header first
//   - the extras sheet: two columns, [key, value], feeding the summary
//
// Cells are read as raw values, not as the workbook displays them.
// A cell formatted as "1 076 795 000 €" or "5,53 %" comes back as
// "1076795000" or "0.0553", which the number normalizer always accepts.
// Trailing empty cells are dropped per row, exactly as the online
// spreadsheet export does, so short rows reach the classifier unchanged.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ReadRows reads every row of the main sheet.
//
// PARAMETERS:
//   - path: The path to the XLSX workbook.
//   - sheet: The sheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The rows as raw cell strings, header row included.
//   - An error if the file or the sheet cannot be read.
func ReadRows(path, sheet string) ([][]string, error) {
	return readSheet(path, sheet)
}

// ReadExtras reads the [key, value] extras sheet.
//
// PARAMETERS:
//   - path: The path to the XLSX workbook.
//   - sheet: The extras sheet name. It must be given; the first sheet is
//     never assumed to be the extras table.
//
// RETURNS:
//   - The rows as raw cell strings.
//   - An error if the file or the sheet cannot be read.
func ReadExtras(path, sheet string) ([][]string, error) {
	if sheet == "" {
		return nil, fmt.Errorf("extras sheet name is required")
	}
	return readSheet(path, sheet)
}

// readSheet opens the workbook and returns the raw rows of one sheet.
func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if names := f.GetSheetList(); !slices.Contains(names, sheet) {
		return nil, fmt.Errorf("sheet %q not found (available: %v)", sheet, names)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}
	return rows, nil
}
