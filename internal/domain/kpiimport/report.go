package kpiimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// File is a generated download.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Message is the summary shown next to the download.
func (r Result) Message() string {
	created := r.FileCount - r.ErrorCount
	switch r.Outcome {
	case OutcomeEmpty:
		return MessageEmpty
	case OutcomeOverLimit:
		return MessageOverLimit
	case OutcomeMalformed:
		return MessageMalformed
	case OutcomeAllSucceeded:
		return fmt.Sprintf("%s added successfully.", countKPIs(created))
	case OutcomeAllFailed:
		if r.ErrorCount == 1 {
			return "The KPI could not be added. Download the error file for details."
		}
		return fmt.Sprintf("None of the %d KPIs could be added. Download the error file for details.", r.ErrorCount)
	}
	return fmt.Sprintf("%s added successfully, %s failed. Download the error file for details.",
		countKPIs(created), countKPIs(r.ErrorCount))
}

func countKPIs(n int) string {
	if n == 1 {
		return "1 KPI"
	}
	return strconv.Itoa(n) + " KPIs"
}

// BuildErrorReport lists every rejected row with its problems in a trailing column.
func BuildErrorReport(r Result) (File, error) {
	records := make([][]string, 0, len(r.Errors)+1)
	records = append(records, append(append([]string{}, Header...), "Errors"))
	for _, e := range r.Errors {
		records = append(records, append(append([]string{}, e.Values...), e.Errors))
	}
	data, err := writeCSV(records)
	if err != nil {
		return File{}, err
	}
	return File{Name: "kpi-import-errors.csv", MimeType: csvMimeType, Data: data}, nil
}

// BuildSuccessReport confirms a fully successful upload.
func BuildSuccessReport(r Result) (File, error) {
	records := [][]string{{"Line", "KPI Id", "KPI Title"}}
	for _, c := range r.Created {
		records = append(records, []string{strconv.Itoa(c.Line), c.ID, c.Title})
	}
	records = append(records, []string{}, []string{r.Message()})
	data, err := writeCSV(records)
	if err != nil {
		return File{}, err
	}
	return File{Name: "kpi-import-success.csv", MimeType: csvMimeType, Data: data}, nil
}

// RejectionReport explains why a whole upload was refused: empty, over the row
// limit or not valid CSV.
func RejectionReport(e *RejectionError) File {
	data, _ := writeCSV([][]string{{"Errors"}, {e.Error()}})
	return File{Name: "kpi-import-errors.csv", MimeType: csvMimeType, Data: data}
}

// Template is an empty upload file with one example row.
func Template() File {
	example := make([]string, len(Header))
	example[0] = "Communication"
	example[1] = "Clear status updates"
	example[2] = "Shares a written status update with stakeholders every week without being asked."
	example[3] = "Yes"
	example[4] = "Engineering [BE Team (Lead|Senior Engineer)]"
	data, _ := writeCSV([][]string{Header, example})
	return File{Name: "kpi-import-template.csv", MimeType: csvMimeType, Data: data}
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
