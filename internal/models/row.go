package models

// CellKind is the stored type of a spreadsheet cell.
type CellKind int

const (
	CellText CellKind = iota
	CellNumber
	CellBool
)

// CellFormat describes how a cell was stored in a typed spreadsheet,
// so that it can be written back unchanged.
type CellFormat struct {
	Kind    CellKind
	NumFmt  string // NumFmt is the number format code of numeric and date cells.
	Formula string
}

// Row is one input record of a Table.
type Row struct {
	Index       int          // Index is the original position of the row in the input.
	Cells       []string     // Cells holds the original raw values, aligned with Table.Header.
	Formats     []CellFormat // Formats is aligned with Cells; nil for untyped sources such as CSV.
	Address     string       // Address is the value of the address column.
	Coordinates *Coordinates // Coordinates is nil until the row resolves.
}

// Format returns the stored format of cell i, CellText when unknown.
func (r Row) Format(i int) CellFormat {
	if i < 0 || i >= len(r.Formats) {
		return CellFormat{}
	}
	return r.Formats[i]
}

// Resolved reports whether the row carries a valid coordinate pair.
func (r Row) Resolved() bool {
	return r.Coordinates != nil
}

// Table is an ordered set of rows read from one spreadsheet.
type Table struct {
	Header       []string // Header is the original column header, without coordinate columns.
	AddressField string   // AddressField names the column holding addresses.
	Rows         []Row
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Slice returns an independent copy of rows [from, to).
// Row indices are preserved so that a slice still refers to positions of the source table.
func (t *Table) Slice(from, to int) *Table {
	if from < 0 {
		from = 0
	}
	if to > len(t.Rows) {
		to = len(t.Rows)
	}
	if from > to {
		from = to
	}

	rows := make([]Row, 0, to-from)
	for _, row := range t.Rows[from:to] {
		cp := Row{
			Index:   row.Index,
			Cells:   append([]string(nil), row.Cells...),
			Address: row.Address,
		}
		if row.Formats != nil {
			cp.Formats = append([]CellFormat(nil), row.Formats...)
		}
		if row.Coordinates != nil {
			coords := *row.Coordinates
			cp.Coordinates = &coords
		}
		rows = append(rows, cp)
	}

	return &Table{
		Header:       append([]string(nil), t.Header...),
		AddressField: t.AddressField,
		Rows:         rows,
	}
}

// Unresolved returns a copy of the table with every coordinate pair cleared.
func (t *Table) Unresolved() *Table {
	cp := t.Slice(0, len(t.Rows))
	for i := range cp.Rows {
		cp.Rows[i].Coordinates = nil
	}
	return cp
}
