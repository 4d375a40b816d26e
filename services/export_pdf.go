package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// maxPDFColumns is the maroto grid width. The PDF layout places one grid
// unit per column minimum, so a wider selection is truncated; the Excel
// export has no such cap.
const maxPDFColumns = 12

// GeneratePDF creates a PDF document from export data using maroto/v2.
// It returns the raw PDF bytes or an error.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	columns := data.Columns
	if len(columns) > maxPDFColumns {
		columns = columns[:maxPDFColumns]
	}
	sizes := pdfColumnSizes(columns)

	addPDFHeader(m, data)
	addPDFTableHeader(m, columns, sizes)
	for _, it := range data.Items {
		addPDFTableRow(m, columns, sizes, it, data.Values)
	}
	addPDFTotalsRow(m, columns, sizes, data.Totals)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// pdfColumnSizes distributes the 12 grid units: one per column, with the
// leftovers going to the description column (or the first column when no
// description is selected).
func pdfColumnSizes(columns []ExportColumn) []int {
	sizes := make([]int, len(columns))
	if len(columns) == 0 {
		return sizes
	}
	for i := range sizes {
		sizes[i] = 1
	}
	leftover := maxPDFColumns - len(columns)
	wide := 0
	for i, c := range columns {
		if c.Key == "description" {
			wide = i
			break
		}
	}
	sizes[wide] += leftover
	return sizes
}

// addPDFHeader adds the title and generation date.
func addPDFHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Date: %s", data.GeneratedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	// Spacer
	m.AddRows(row.New(4))
}

// addPDFTableHeader adds the column header row.
func addPDFTableHeader(m core.Maroto, columns []ExportColumn, sizes []int) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerCell := props.Cell{BackgroundColor: headerBg}

	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		cols = append(cols,
			col.New(sizes[i]).Add(text.New(c.Header, headerText)).WithStyle(&headerCell),
		)
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addPDFTableRow adds one item row.
func addPDFTableRow(m core.Maroto, columns []ExportColumn, sizes []int, it BOQItem, values UpdateValueIndex) {
	baseText := props.Text{Size: 7, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		style := baseText
		switch {
		case c.Money || c.Qty:
			style = rightText
		case c.Key == "description" || c.Key == "notes":
			style = leftText
		}
		cols = append(cols,
			col.New(sizes[i]).Add(text.New(CellValue(c, it, values), style)),
		)
	}
	m.AddRows(row.New(6).Add(cols...))
}

// addPDFTotalsRow adds the bold totals row under the table.
func addPDFTotalsRow(m core.Maroto, columns []ExportColumn, sizes []int, totals Totals) {
	totalText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	bg := &props.Color{Red: 235, Green: 235, Blue: 235}
	cellStyle := props.Cell{BackgroundColor: bg}

	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		value := TotalCell(c, totals)
		if i == 0 && value == "" {
			value = "Totals"
		}
		cols = append(cols,
			col.New(sizes[i]).Add(text.New(value, totalText)).WithStyle(&cellStyle),
		)
	}
	m.AddRows(row.New(7).Add(cols...))
}
