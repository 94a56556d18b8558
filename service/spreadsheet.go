package service

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Row one data row keyed by header. Values are string, float64, bool or time.Time.
type Row map[string]interface{}

// Sheet the first worksheet of an upload, header row located and data rows keyed
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

const emptyHeader = "__EMPTY"

// ReadSpreadsheet parses the first worksheet of an .xlsx or .xls upload
func ReadSpreadsheet(fileName string, r io.Reader) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return readXLSX(r)
	case ".xls":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return readXLS(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func readXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySpreadsheet
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", name, err)
	}

	cells := make([][]interface{}, len(raw))
	for r, row := range raw {
		cells[r] = make([]interface{}, len(row))
		for c, value := range row {
			cells[r][c] = typedXLSXCell(f, name, c+1, r+1, value)
		}
	}
	return buildSheet(name, cells), nil
}

// typedXLSXCell recovers the cell type lost by GetRows so numbers stay numbers
func typedXLSXCell(f *excelize.File, sheet string, col, row int, value string) interface{} {
	if value == "" {
		return ""
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return value
	}
	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return value
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError, excelize.CellTypeFormula:
		return value
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true")
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
		return value
	default:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
		return value
	}
}

func readXLS(r io.ReadSeeker) (*Sheet, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptySpreadsheet
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, ErrEmptySpreadsheet
	}

	cells := make([][]interface{}, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			cells = append(cells, nil)
			continue
		}
		values := make([]interface{}, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			values = append(values, typedTextCell(row.Col(c)))
		}
		cells = append(cells, values)
	}
	return buildSheet(ws.Name, cells), nil
}

// typedTextCell types a cell that the reader only exposes as text
func typedTextCell(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t
	}
	return value
}

// buildSheet locates the header row (first row with at least two non-empty
// cells) and keys every following non-blank row by header.
func buildSheet(name string, cells [][]interface{}) *Sheet {
	sheet := &Sheet{Name: name}

	headerRow := -1
	for i, row := range cells {
		if countNonEmpty(row) >= 2 {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return sheet
	}

	width := 0
	for _, row := range cells[headerRow:] {
		if len(row) > width {
			width = len(row)
		}
	}
	sheet.Headers = headerNames(cells[headerRow], width)

	for _, row := range cells[headerRow+1:] {
		if countNonEmpty(row) == 0 {
			continue
		}
		values := make(Row, width)
		for c, header := range sheet.Headers {
			if c < len(row) && row[c] != nil {
				values[header] = row[c]
			} else {
				values[header] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, values)
	}
	return sheet
}

// headerNames names blank header cells __EMPTY, __EMPTY_1, ... and suffixes
// repeated header text with _1, _2, ... so every key is unique.
func headerNames(row []interface{}, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)
	for c := 0; c < width; c++ {
		base := emptyHeader
		if c < len(row) {
			if text := cellText(row[c]); text != "" {
				base = text
			}
		}

		name := base
		if n, dup := seen[base]; dup {
			for {
				name = base + "_" + strconv.Itoa(n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		} else {
			seen[base] = 1
		}
		seen[name] = max(seen[name], 1)
		headers[c] = name
	}
	return headers
}

func cellText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return FormatCellValue(val)
	}
}

func countNonEmpty(row []interface{}) int {
	n := 0
	for _, v := range row {
		if cellText(v) != "" {
			n++
		}
	}
	return n
}
