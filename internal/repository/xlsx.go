package repository

import (
	"strconv"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

const resultSheetName = "Sheet1"

// readXLSX reads every row of the first sheet with the raw value and format of each cell.
// Trailing blank rows are dropped.
func readXLSX(path string) ([][]string, [][]models.CellFormat, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}

	if len(f.Sheets) == 0 {
		return nil, nil, eris.Wrap(ErrEmptySheet, "xlsx: workbook has no sheets")
	}

	var (
		records [][]string
		formats [][]models.CellFormat
	)
	for _, row := range f.Sheets[0].Rows {
		var (
			cells       []string
			cellFormats []models.CellFormat
		)
		if row != nil {
			cells = make([]string, len(row.Cells))
			cellFormats = make([]models.CellFormat, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j], cellFormats[j] = readCell(cell)
			}
		}
		records = append(records, cells)
		formats = append(formats, cellFormats)
	}

	last := len(records)
	for last > 0 && isBlankRecord(records[last-1]) {
		last--
	}

	return records[:last], formats[:last], nil
}

// readCell returns the stored value of cell rather than its display text.
func readCell(cell *xlsx.Cell) (string, models.CellFormat) {
	format := models.CellFormat{Formula: cell.Formula()}

	switch cell.Type() {
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if cell.Value == "" {
			return "", format
		}
		format.Kind = models.CellNumber
		format.NumFmt = cell.GetNumberFormat()
		return cell.Value, format
	case xlsx.CellTypeBool:
		format.Kind = models.CellBool
		return cell.Value, format
	case xlsx.CellTypeString, xlsx.CellTypeStringFormula, xlsx.CellTypeInline, xlsx.CellTypeError:
		return cell.Value, format
	default:
		return cell.String(), format
	}
}

func writeXLSX(path string, table *models.Table, withCoords bool) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(resultSheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range outputHeader(table, withCoords) {
		header.AddCell().SetString(name)
	}

	for _, row := range table.Rows {
		out := sheet.AddRow()
		for j, value := range row.Cells {
			writeCell(out.AddCell(), value, row.Format(j))
		}
		if !withCoords {
			continue
		}
		lat, lon := out.AddCell(), out.AddCell()
		if row.Coordinates != nil {
			lat.SetFloat(row.Coordinates.Latitude)
			lon.SetFloat(row.Coordinates.Longitude)
		}
	}

	if err = f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}

	return nil
}

// writeCell stores value with the type it was read with.
func writeCell(cell *xlsx.Cell, value string, format models.CellFormat) {
	if format.Formula != "" {
		if format.Kind == models.CellText {
			cell.SetStringFormula(format.Formula)
		} else {
			cell.SetFormula(format.Formula)
		}
		cell.Value = value
		return
	}

	switch format.Kind {
	case models.CellNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			break
		}
		if format.NumFmt == "" {
			cell.SetFloat(n)
		} else {
			cell.SetFloatWithFormat(n, format.NumFmt)
		}
		return
	case models.CellBool:
		cell.SetBool(value == "1")
		return
	case models.CellText:
	}

	cell.SetString(value)
}
