package kpiimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Row is one data line of an upload: four fixed cells and up to ten department cells.
type Row struct {
	Line        int
	KRA         string
	Title       string
	Description string
	Status      string
	Departments []string
	// Overflow is set when non-empty cells follow the tenth department cell.
	Overflow bool
}

// Values returns the row as written, padded to the full column layout.
func (r Row) Values() []string {
	out := make([]string, 0, len(Header))
	out = append(out, r.KRA, r.Title, r.Description, r.Status)
	out = append(out, r.Departments...)
	for len(out) < len(Header) {
		out = append(out, "")
	}
	return out
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile reads a CSV upload. The first record is the header. Records whose cells
// are all blank are skipped. Any CSV syntax error rejects the whole file.
func ParseFile(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	var rows []Row
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RejectionError{Outcome: OutcomeMalformed, Err: err}
		}
		if header {
			header = false
			continue
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, newRow(line, record))
	}
	return rows, nil
}

func newRow(line int, record []string) Row {
	cell := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}

	row := Row{
		Line:        line,
		KRA:         cell(0),
		Title:       cell(1),
		Description: cell(2),
		Status:      cell(3),
		Departments: make([]string, MaxDepartmentCells),
	}
	for i := range row.Departments {
		row.Departments[i] = cell(fixedColumns + i)
	}
	for i := fixedColumns + MaxDepartmentCells; i < len(record); i++ {
		if strings.TrimSpace(record[i]) != "" {
			row.Overflow = true
			break
		}
	}
	return row
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
