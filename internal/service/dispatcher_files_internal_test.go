package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/repository"
	"github.com/UnknownOlympus/geobatch/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// concurrencyProvider holds every lookup for a while and records the peak overlap.
type concurrencyProvider struct {
	hold     time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (p *concurrencyProvider) Geocode(ctx context.Context, _ string) models.Outcome {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-time.After(p.hold):
	case <-ctx.Done():
		return models.FatalError(ctx.Err())
	}

	return models.Success(1, 2)
}

func newFileDispatcher(provider *fakeProvider, workers int, delay time.Duration) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(
		logger,
		repository.NewRepository(logger),
		provider,
		"fake",
		metrics.NewMetrics(prometheus.NewRegistry()),
		workers,
		delay,
	)
}

// newSaveAllRepo expects a single successful SaveResults call.
func newSaveAllRepo(t *testing.T) *mocks.Interface {
	t.Helper()
	repo := mocks.NewInterface(t)
	repo.On("SaveResults", testPaths.Output, mock.AnythingOfType("*models.Table")).Return(nil).Once()
	return repo
}

func TestRun_WorkerBound(t *testing.T) {
	provider := &concurrencyProvider{hold: 20 * time.Millisecond}
	repo := newSaveAllRepo(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := NewDispatcher(logger, repo, provider, "fake",
		metrics.NewMetrics(prometheus.NewRegistry()), 3, 0)

	summary, err := dispatcher.Run(t.Context(), newTestTable(numberedAddresses(15)...), testPaths)

	require.NoError(t, err)
	assert.Equal(t, 15, summary.Succeeded)
	assert.Equal(t, int32(15), provider.calls.Load())
	assert.LessOrEqual(t, provider.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, provider.peak.Load(), int32(2))
}

func TestRun_ThrottleSpacing(t *testing.T) {
	const (
		rows  = 20
		delay = 5 * time.Millisecond
	)
	provider := newFakeProvider(map[string]models.Outcome{})
	repo := newSaveAllRepo(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := NewDispatcher(logger, repo, provider, "fake",
		metrics.NewMetrics(prometheus.NewRegistry()), 4, delay)

	start := time.Now()
	summary, err := dispatcher.Run(t.Context(), newTestTable(numberedAddresses(rows)...), testPaths)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, rows, summary.Processed)
	// The first submission is immediate, every later one waits a full delay.
	assert.GreaterOrEqual(t, elapsed, (rows-1)*delay)
}

func TestRun_FatalSplitsFiles(t *testing.T) {
	const rows, fatalAt = 10, 5

	outcomes := map[string]models.Outcome{}
	for i := range rows {
		outcomes[fmt.Sprintf("addr-%d", i)] = models.Success(float64(i), float64(i)+100)
	}
	outcomes[fmt.Sprintf("addr-%d", fatalAt)] = models.FatalError(errors.New("invalid api key"))

	tests := []struct {
		name       string
		ext        string
		writeInput func(t *testing.T, path string)
		readOutput func(t *testing.T, path string) [][]string
		checkInput func(t *testing.T, path string)
	}{
		{
			name: "csv",
			ext:  ".csv",
			writeInput: func(t *testing.T, path string) {
				t.Helper()
				records := [][]string{{"ID", "ADDR", "NOTE"}}
				for i := range rows {
					records = append(records, []string{strconv.Itoa(i), fmt.Sprintf("addr-%d", i), fmt.Sprintf("note %d", i)})
				}
				writeCSVFile(t, path, records)
			},
			readOutput: readCSVFile,
			checkInput: func(t *testing.T, path string) {
				t.Helper()
				records := readCSVFile(t, path)
				require.Len(t, records, rows-fatalAt+1)
				assert.Equal(t, []string{"ID", "ADDR", "NOTE"}, records[0])
				for i, record := range records[1:] {
					n := fatalAt + i
					assert.Equal(t, []string{strconv.Itoa(n), fmt.Sprintf("addr-%d", n), fmt.Sprintf("note %d", n)}, record)
				}
			},
		},
		{
			name: "xlsx",
			ext:  ".xlsx",
			writeInput: func(t *testing.T, path string) {
				t.Helper()
				f := xlsx.NewFile()
				sheet, err := f.AddSheet("Sheet1")
				require.NoError(t, err)
				header := sheet.AddRow()
				for _, name := range []string{"AMOUNT", "ADDR", "latitude"} {
					header.AddCell().SetString(name)
				}
				for i := range rows {
					row := sheet.AddRow()
					row.AddCell().SetFloatWithFormat(float64(i)+0.125, "0.0")
					row.AddCell().SetString(fmt.Sprintf("addr-%d", i))
					row.AddCell().SetFloat(-1)
				}
				require.NoError(t, f.Save(path))
			},
			readOutput: readXLSXFile,
			checkInput: func(t *testing.T, path string) {
				t.Helper()
				f, err := xlsx.OpenFile(path)
				require.NoError(t, err)
				sheetRows := f.Sheets[0].Rows
				require.Len(t, sheetRows, rows-fatalAt+1)
				require.Len(t, sheetRows[0].Cells, 2)
				assert.Equal(t, "AMOUNT", sheetRows[0].Cells[0].Value)
				assert.Equal(t, "ADDR", sheetRows[0].Cells[1].Value)
				for i, row := range sheetRows[1:] {
					n := fatalAt + i
					require.Len(t, row.Cells, 2)
					amount := row.Cells[0]
					assert.Equal(t, xlsx.CellTypeNumeric, amount.Type())
					assert.Equal(t, strconv.FormatFloat(float64(n)+0.125, 'f', -1, 64), amount.Value)
					assert.Equal(t, "0.0", amount.GetNumberFormat())
					assert.Equal(t, fmt.Sprintf("addr-%d", n), row.Cells[1].Value)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := Paths{
				Input:  filepath.Join(dir, "input"+tt.ext),
				Output: filepath.Join(dir, "output"+tt.ext),
			}
			tt.writeInput(t, paths.Input)

			provider := newFakeProvider(outcomes)
			dispatcher := newFileDispatcher(provider, 3, 0)
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			table, err := repository.NewRepository(logger).Load(paths.Input, "ADDR")
			require.NoError(t, err)
			require.Equal(t, rows, table.Len())

			summary, err := dispatcher.Run(t.Context(), table, paths)

			var abortErr *AbortError
			require.ErrorAs(t, err, &abortErr)
			assert.Equal(t, fatalAt, abortErr.Index)
			assert.Equal(t, fatalAt, summary.Processed)

			output := tt.readOutput(t, paths.Output)
			require.Len(t, output, fatalAt+1)
			header := output[0]
			require.GreaterOrEqual(t, len(header), 2)
			assert.Equal(t, []string{"latitude", "longitude"}, header[len(header)-2:])
			for i, record := range output[1:] {
				require.Len(t, record, len(header))
				assert.Equal(t, fmt.Sprintf("addr-%d", i), record[1])
				assert.Equal(t, strconv.Itoa(i), record[len(record)-2])
				assert.Equal(t, strconv.Itoa(i+100), record[len(record)-1])
			}

			tt.checkInput(t, paths.Input)
		})
	}
}

func writeCSVFile(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(records))
	require.NoError(t, f.Close())
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func readXLSXFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, f.Sheets)

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		record := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			record[j] = cell.Value
		}
		records = append(records, record)
	}
	return records
}
