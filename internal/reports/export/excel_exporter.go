package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Column is one column of a sheet.
type Column struct {
	Header string
	Width  float64
}

// Workbook writes tabular sheets with a styled, frozen header row.
type Workbook struct {
	file        *excelize.File
	headerStyle int
	dataStyle   int
	dateStyle   int
	moneyStyle  int
	sheets      int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() (*Workbook, error) {
	file := excelize.NewFile()
	w := &Workbook{file: file}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	var err error
	if w.headerStyle, err = file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if w.dataStyle, err = file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "left", WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return nil, fmt.Errorf("failed to create data style: %w", err)
	}
	dateFormat := "yyyy-mm-dd"
	if w.dateStyle, err = file.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat, Border: border}); err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}
	moneyFormat := "#,##0.00"
	if w.moneyStyle, err = file.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat, Border: border}); err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}
	return w, nil
}

// AddSheet writes a sheet named name. The first sheet replaces the default
// one.
func (w *Workbook) AddSheet(name string, columns []Column, rows [][]any) error {
	if w.sheets == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	w.sheets++

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.file.SetCellValue(name, cell, col.Header); err != nil {
			return err
		}
		if err := w.file.SetCellStyle(name, cell, cell, w.headerStyle); err != nil {
			return err
		}
		if col.Width > 0 {
			colName, _ := excelize.ColumnNumberToName(i + 1)
			if err := w.file.SetColWidth(name, colName, colName, col.Width); err != nil {
				return err
			}
		}
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := w.setCell(name, cell, val); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(columns) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
		if err := w.file.AutoFilter(name, "A1:"+lastCol, nil); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) setCell(sheet, cell string, val any) error {
	style := w.dataStyle
	switch v := val.(type) {
	case nil:
		val = ""
	case *float64:
		if v == nil {
			val = ""
		} else {
			val, style = *v, w.moneyStyle
		}
	case float64:
		style = w.moneyStyle
	case *time.Time:
		if v == nil || v.IsZero() {
			val = ""
		} else {
			val, style = *v, w.dateStyle
		}
	case time.Time:
		if v.IsZero() {
			val = ""
		} else {
			style = w.dateStyle
		}
	}

	if err := w.file.SetCellValue(sheet, cell, val); err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, cell, cell, style)
}

// WriteTo writes the workbook as xlsx.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	return w.file.WriteTo(out)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}
