package repository

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readCSV reads a UTF-8 CSV file, with or without a byte order mark.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(f, decoder))
	reader.FieldsPerRecord = -1 // allow variable fields

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		records = append(records, record)
	}

	return records, nil
}

func writeCSV(path string, table *models.Table, withCoords bool) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create file")
	}

	writer := csv.NewWriter(f)
	if err = writer.Write(outputHeader(table, withCoords)); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "csv: write header")
	}

	for _, row := range table.Rows {
		record := append([]string(nil), row.Cells...)
		if withCoords {
			lat, lon := "", ""
			if row.Coordinates != nil {
				lat = formatFloat(row.Coordinates.Latitude)
				lon = formatFloat(row.Coordinates.Longitude)
			}
			record = append(record, lat, lon)
		}
		if err = writer.Write(record); err != nil {
			_ = f.Close()
			return eris.Wrap(err, "csv: write row")
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "csv: flush")
	}

	return eris.Wrap(f.Close(), "csv: close file")
}
