package kpi

import (
	"html"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// HasContentChanges reports whether in differs from current in anything but status.
// Mapping order and designation order are ignored.
func HasContentChanges(current KPI, in Input) bool {
	if current.Title != in.Title || current.Description != in.Description || current.KRAID != in.KRAID {
		return true
	}
	return !slices.Equal(mappingKeys(current.Mappings), mappingKeys(in.Mappings))
}

// mappingKeys flattens mappings into sorted department/team/designation triples so
// two mapping lists compare equal as multisets.
func mappingKeys(mappings []Mapping) []string {
	var keys []string
	for _, m := range mappings {
		for _, d := range m.DesignationIDs {
			keys = append(keys, m.DepartmentID+"/"+m.TeamID+"/"+d)
		}
	}
	sort.Strings(keys)
	return keys
}

// NormalizeDescription unescapes HTML entities and trims surrounding space.
func NormalizeDescription(description string) string {
	return strings.TrimSpace(html.UnescapeString(description))
}

func ValidTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= TitleMinLength && n <= TitleMaxLength
}

func ValidDescription(description string) bool {
	n := utf8.RuneCountInString(description)
	return n >= DescriptionMinLength && n <= DescriptionMaxLength
}

// Validate normalises in and reports every rule it breaks.
func (in *Input) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = NormalizeDescription(in.Description)

	var problems []string
	if strings.TrimSpace(in.KRAID) == "" {
		problems = append(problems, "kraId is required")
	}
	if !ValidTitle(in.Title) {
		problems = append(problems, "title must be between 5 and 60 characters")
	}
	if !ValidDescription(in.Description) {
		problems = append(problems, "description must be between 50 and 1000 characters")
	}
	if len(in.Mappings) == 0 {
		problems = append(problems, "at least one department mapping is required")
	}

	teams := map[string]bool{}
	for _, m := range in.Mappings {
		if m.DepartmentID == "" || m.TeamID == "" {
			problems = append(problems, "mapping requires departmentId and teamId")
			continue
		}
		if teams[m.TeamID] {
			problems = append(problems, "duplicate team "+m.TeamID)
		}
		teams[m.TeamID] = true
		if len(m.DesignationIDs) == 0 {
			problems = append(problems, "team "+m.TeamID+" requires at least one designation")
		}
		seen := map[string]bool{}
		for _, d := range m.DesignationIDs {
			if seen[d] {
				problems = append(problems, "duplicate designation "+d)
			}
			seen[d] = true
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
