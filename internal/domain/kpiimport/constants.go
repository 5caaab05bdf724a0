package kpiimport

import "strconv"

const (
	// MaxRows bounds the work a single upload can cause.
	MaxRows            = 500
	MaxDepartmentCells = 10

	fixedColumns = 4
	// firstDepartmentColumn is the 1-based spreadsheet column of the first department cell.
	firstDepartmentColumn = fixedColumns + 1

	csvMimeType = "text/csv"
)

// Outcome partitions an upload's result for the caller.
type Outcome string

const (
	OutcomeEmpty        Outcome = "empty"
	OutcomeOverLimit    Outcome = "over_limit"
	OutcomeMalformed    Outcome = "malformed"
	OutcomeAllSucceeded Outcome = "all_succeeded"
	OutcomePartial      Outcome = "partial"
	OutcomeAllFailed    Outcome = "all_failed"
)

const (
	MessageEmpty     = "No KPIs to add."
	MessageOverLimit = "You can add at most 500 KPIs in one file."
	MessageMalformed = "Remove invalid data and try again!"

	msgMissingFirstDepartment = "Invalid Department [Team 1 (Designation)]"
	msgKRARequired            = "KRA is required"
	msgTitleRequired          = "KPI Title is required"
	msgTitleLength            = "Invalid KPI Title (must be between 5 and 60 characters)"
	msgDescriptionRequired    = "KPI Description is required"
	msgDescriptionLength      = "Invalid KPI Description (must be between 50 and 1000 characters)"
	msgStatus                 = "Invalid Status (must be Yes, Y, No or N)"
	msgTooManyDepartments     = "Only 10 Department columns are allowed"
	msgDuplicateData          = "Duplicate data found"
	msgRowNotSaved            = "Could not save this KPI, please try again"
)

// Header is the column layout of the template, success and error files.
var Header = func() []string {
	h := []string{"KRA", "KPI Title", "KPI Description", "Status"}
	for i := 1; i <= MaxDepartmentCells; i++ {
		h = append(h, "Department "+strconv.Itoa(i))
	}
	return h
}()

