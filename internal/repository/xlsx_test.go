package repository_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	repo := repository.NewRepository(slog.Default())

	t.Run("success", func(t *testing.T) {
		path := createTestXLSX(t, [][]string{
			{"ID", "ADDR", "longitude"},
			{"1", "Seoul City Hall", "0"},
			{"2", "", ""},
			{"", "", ""},
			{"3", "Busan Station"},
		})

		table, err := repo.Load(path, "ADDR")

		require.NoError(t, err)
		assert.Equal(t, []string{"ID", "ADDR"}, table.Header)
		require.Equal(t, 4, table.Len())
		assert.Equal(t, "Seoul City Hall", table.Rows[0].Address)
		assert.Empty(t, table.Rows[1].Address)
		assert.Empty(t, table.Rows[2].Address)
		assert.Equal(t, "Busan Station", table.Rows[3].Address)
		assert.Equal(t, 3, table.Rows[3].Index)
	})

	t.Run("trailing blank rows are dropped", func(t *testing.T) {
		path := createTestXLSX(t, [][]string{
			{"ID", "ADDR"},
			{"1", "Seoul City Hall"},
			{"", ""},
			{""},
		})

		table, err := repo.Load(path, "ADDR")

		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("error - address field missing", func(t *testing.T) {
		path := createTestXLSX(t, [][]string{{"ID"}, {"1"}})

		_, err := repo.Load(path, "ADDR")

		require.ErrorIs(t, err, repository.ErrAddressFieldMissing)
	})

	t.Run("error - not a workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o600))

		_, err := repo.Load(path, "ADDR")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "xlsx: open file")
	})
}

func TestSaveXLSX(t *testing.T) {
	repo := repository.NewRepository(slog.Default())
	table := &models.Table{
		Header:       []string{"ID", "ADDR"},
		AddressField: "ADDR",
		Rows: []models.Row{
			{Index: 0, Cells: []string{"1", "Seoul City Hall"}, Address: "Seoul City Hall",
				Coordinates: &models.Coordinates{Latitude: 37.566, Longitude: 126.978}},
			{Index: 1, Cells: []string{"2", ""}},
		},
	}

	t.Run("results carry float coordinates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xlsx")

		require.NoError(t, repo.SaveResults(path, table))

		f, err := xlsx.OpenFile(path)
		require.NoError(t, err)
		rows := f.Sheets[0].Rows
		require.Len(t, rows, 3)
		require.Len(t, rows[0].Cells, 4)
		assert.Equal(t, "latitude", rows[0].Cells[2].String())
		assert.Equal(t, "longitude", rows[0].Cells[3].String())

		lat, err := rows[1].Cells[2].Float()
		require.NoError(t, err)
		lon, err := rows[1].Cells[3].Float()
		require.NoError(t, err)
		assert.Equal(t, 37.566, lat)  //nolint:testifylint // exact value expected
		assert.Equal(t, 126.978, lon) //nolint:testifylint // exact value expected
		if len(rows[2].Cells) > 2 {
			assert.Empty(t, rows[2].Cells[2].String())
		}
	})

	t.Run("remaining keeps original columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "remaining.xlsx")

		require.NoError(t, repo.SaveRemaining(path, table))

		loaded, err := repo.Load(path, "ADDR")
		require.NoError(t, err)
		assert.Equal(t, table.Header, loaded.Header)
		require.Equal(t, 2, loaded.Len())
		assert.Equal(t, []string{"1", "Seoul City Hall"}, loaded.Rows[0].Cells)
	})
}

func TestSaveRemainingXLSX_KeepsCellTypes(t *testing.T) {
	repo := repository.NewRepository(slog.Default())

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	header := sheet.AddRow()
	for _, name := range []string{"AMOUNT", "ACTIVE", "ZIP", "ADDR"} {
		header.AddCell().SetString(name)
	}
	row := sheet.AddRow()
	row.AddCell().SetFloatWithFormat(1234.5678, "0.0")
	row.AddCell().SetBool(true)
	row.AddCell().SetString("04524")
	row.AddCell().SetString("Seoul City Hall")
	path := filepath.Join(t.TempDir(), "typed.xlsx")
	require.NoError(t, f.Save(path))

	table, err := repo.Load(path, "ADDR")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "1234.5678", table.Rows[0].Cells[0])
	assert.Equal(t, models.CellNumber, table.Rows[0].Format(0).Kind)
	assert.Equal(t, "0.0", table.Rows[0].Format(0).NumFmt)

	require.NoError(t, repo.SaveRemaining(path, table))

	saved, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	rows := saved.Sheets[0].Rows
	require.Len(t, rows, 2)
	cells := rows[1].Cells
	require.Len(t, cells, 4)

	assert.Equal(t, xlsx.CellTypeNumeric, cells[0].Type())
	assert.Equal(t, "1234.5678", cells[0].Value)
	amount, err := cells[0].Float()
	require.NoError(t, err)
	assert.Equal(t, 1234.5678, amount) //nolint:testifylint // exact value expected
	assert.Equal(t, "0.0", cells[0].GetNumberFormat())

	assert.Equal(t, xlsx.CellTypeBool, cells[1].Type())
	assert.True(t, cells[1].Bool())

	assert.Equal(t, xlsx.CellTypeString, cells[2].Type())
	assert.Equal(t, "04524", cells[2].Value)
	assert.Equal(t, "Seoul City Hall", cells[3].Value)
}
