package kpiimport

import (
	"fmt"
	"strings"
)

// DepartmentCell is a parsed `Department [Team (Designation|Designation)]` cell.
type DepartmentCell struct {
	Department   string
	Team         string
	Designations []string
	// rawDesignations is the text between the parentheses.
	rawDesignations string
}

// ParseCell splits raw into its parts. column is the 1-based spreadsheet column used
// in messages. A cell without brackets or parentheses yields a problem and no parts
// past the missing delimiter.
func ParseCell(raw string, column int) (DepartmentCell, []string) {
	raw = strings.TrimSpace(raw)
	open := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if open < 0 || end < open {
		return DepartmentCell{Department: raw}, []string{fmt.Sprintf("Add at least one team in Department column %d", column)}
	}

	cell := DepartmentCell{Department: strings.TrimSpace(raw[:open])}
	var problems []string
	if cell.Department == "" {
		problems = append(problems, fmt.Sprintf("Department name is missing in column %d", column))
	}
	if strings.TrimSpace(raw[end+1:]) != "" {
		problems = append(problems, fmt.Sprintf("Unexpected text after ] in Department column %d", column))
	}

	inner := raw[open+1 : end]
	po := strings.Index(inner, "(")
	pc := strings.LastIndex(inner, ")")
	if po < 0 || pc < po {
		cell.Team = strings.TrimSpace(inner)
		return cell, append(problems, fmt.Sprintf("Add at least one designation in Department column %d", column))
	}

	cell.Team = strings.TrimSpace(inner[:po])
	if cell.Team == "" {
		problems = append(problems, fmt.Sprintf("Team name is missing in column %d", column))
	}
	cell.rawDesignations = strings.TrimSpace(inner[po+1 : pc])
	for _, d := range strings.Split(cell.rawDesignations, "|") {
		if d = strings.TrimSpace(d); d != "" {
			cell.Designations = append(cell.Designations, d)
		}
	}
	if len(cell.Designations) == 0 {
		problems = append(problems, fmt.Sprintf("Add at least one designation in Department column %d", column))
	}
	return cell, problems
}
