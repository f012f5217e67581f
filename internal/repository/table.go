package repository

import (
	"strconv"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/rotisserie/eris"
)

// buildTable turns raw records into a table. formats, when not nil, is aligned with records.
// Blank records before the header are skipped; blank data rows are kept as rows without address.
func buildTable(records [][]string, formats [][]models.CellFormat, addressField string) (*models.Table, error) {
	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, eris.Wrap(ErrEmptySheet, "repository: build table")
	}

	var (
		header  []string
		keep    []int
		addrCol = -1
	)
	for i, name := range records[start] {
		name = strings.TrimSpace(name)
		if isCoordinateColumn(name) {
			continue
		}
		if name == addressField && addrCol == -1 {
			addrCol = len(header)
		}
		header = append(header, name)
		keep = append(keep, i)
	}

	if addrCol == -1 {
		return nil, eris.Wrapf(ErrAddressFieldMissing, "repository: column %q", addressField)
	}

	rows := make([]models.Row, 0, len(records)-start-1)
	for r := start + 1; r < len(records); r++ {
		record := records[r]
		var recordFormats []models.CellFormat
		if formats != nil {
			recordFormats = formats[r]
		}

		row := models.Row{Index: len(rows), Cells: make([]string, len(keep))}
		if formats != nil {
			row.Formats = make([]models.CellFormat, len(keep))
		}
		for j, src := range keep {
			if src < len(record) {
				row.Cells[j] = record[src]
			}
			if src < len(recordFormats) {
				row.Formats[j] = recordFormats[src]
			}
		}
		row.Address = strings.TrimSpace(row.Cells[addrCol])
		rows = append(rows, row)
	}

	return &models.Table{Header: header, AddressField: addressField, Rows: rows}, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isCoordinateColumn(name string) bool {
	return strings.EqualFold(name, LatitudeColumn) || strings.EqualFold(name, LongitudeColumn)
}

func outputHeader(table *models.Table, withCoords bool) []string {
	header := append([]string(nil), table.Header...)
	if withCoords {
		header = append(header, LatitudeColumn, LongitudeColumn)
	}
	return header
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
