// Package repository loads address tables from spreadsheets and writes results and
// checkpoints back as CSV or XLSX files.
package repository

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/rotisserie/eris"
)

// Column names added to every result table.
const (
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
)

// Errors returned while loading or saving tables.
var (
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrAddressFieldMissing = errors.New("address field does not exist in input file")
	ErrEmptySheet          = errors.New("input file has no header row")
)

type Repository struct {
	log *slog.Logger
}

type Interface interface {
	Load(path, addressField string) (*models.Table, error)
	SaveResults(path string, table *models.Table) error
	SaveRemaining(path string, table *models.Table) error
}

// NewRepository creates a new instance of Repository.
// It returns a pointer to the newly created Repository.
func NewRepository(log *slog.Logger) *Repository {
	return &Repository{log: log}
}

type format int

const (
	formatCSV format = iota + 1
	formatXLSX
)

func detectFormat(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV, nil
	case ".xlsx":
		return formatXLSX, nil
	default:
		return 0, eris.Wrapf(ErrUnsupportedFormat, "repository: %s", filepath.Base(path))
	}
}

// Load reads the spreadsheet at path and builds a table keyed on addressField.
// The first non-blank row is the header. Existing latitude/longitude columns are dropped.
// XLSX cells keep their raw value and stored type so that they can be written back unchanged.
func (r *Repository) Load(path, addressField string) (*models.Table, error) {
	ft, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	var (
		records [][]string
		formats [][]models.CellFormat
	)
	switch ft {
	case formatCSV:
		records, err = readCSV(path)
	case formatXLSX:
		records, formats, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	table, err := buildTable(records, formats, addressField)
	if err != nil {
		return nil, err
	}

	r.log.Debug("Input table loaded", "path", path, "rows", table.Len(), "columns", len(table.Header))

	return table, nil
}

// SaveResults writes table with latitude and longitude columns appended.
func (r *Repository) SaveResults(path string, table *models.Table) error {
	return r.save(path, table, true)
}

// SaveRemaining writes table with its original columns only, so that the file can be fed
// back as input.
func (r *Repository) SaveRemaining(path string, table *models.Table) error {
	return r.save(path, table, false)
}

func (r *Repository) save(path string, table *models.Table, withCoords bool) error {
	ft, err := detectFormat(path)
	if err != nil {
		return err
	}

	switch ft {
	case formatCSV:
		err = writeCSV(path, table, withCoords)
	case formatXLSX:
		err = writeXLSX(path, table, withCoords)
	}
	if err != nil {
		return err
	}

	r.log.Debug("Table saved", "path", path, "rows", table.Len(), "with_coordinates", withCoords)

	return nil
}
