package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateExcel creates an Excel workbook from the given ExportData and
// returns the file contents as a byte slice. The column set is dynamic, so
// cell references are computed rather than hardcoded.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names cap at 31 chars.
	sheetName := data.Title
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "BOQ"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Columns))
	if err != nil {
		return nil, fmt.Errorf("resolve last column: %w", err)
	}

	// Column widths: description gets room, money columns a bit extra.
	for i, col := range data.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("resolve column %d: %w", i+1, err)
		}
		width := 12.0
		switch {
		case col.Key == "description" || col.Key == "notes":
			width = 40
		case col.Money:
			width = 16
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	bodyStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}

	totalsStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create totals style: %w", err)
	}

	// ── Header rows (1-2) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A2", "Date: "+data.GeneratedDate)
	f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)

	// ── Row 4: column headers ───────────────────────────────────────────

	for i, col := range data.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 4)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, col.Header)
	}
	f.SetCellStyle(sheetName, "A4", lastCol+"4", headerStyle)

	// ── Data rows (from row 5) ──────────────────────────────────────────

	rowNum := 5
	for _, it := range data.Items {
		for i, col := range data.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, sanitizeExcelCell(CellValue(col, it, data.Values)))
		}
		f.SetCellStyle(sheetName, "A"+fmt.Sprint(rowNum), lastCol+fmt.Sprint(rowNum), bodyStyle)
		rowNum++
	}

	// ── Totals row ──────────────────────────────────────────────────────

	for i, col := range data.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return nil, fmt.Errorf("totals cell: %w", err)
		}
		value := TotalCell(col, data.Totals)
		if i == 0 && value == "" {
			value = "Totals"
		}
		f.SetCellValue(sheetName, cell, value)
	}
	f.SetCellStyle(sheetName, "A"+fmt.Sprint(rowNum), lastCol+fmt.Sprint(rowNum), totalsStyle)

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
