package kpiimport

import (
	"context"
	"fmt"
	"strings"

	"perfhub/internal/domain/kpi"
	"perfhub/internal/domain/org"
	"perfhub/internal/platform/validation"
)

// Lookups resolves names within one organisation. A name that does not resolve is
// reported through Ref.Exists; errors are reserved for lookup failures.
type Lookups interface {
	KRA(ctx context.Context, orgID, name string) (org.Ref, error)
	Department(ctx context.Context, orgID, name string) (org.Ref, error)
	Team(ctx context.Context, orgID, departmentID, name string) (org.Ref, error)
	Designation(ctx context.Context, orgID, teamID, name string) (org.Ref, error)
}

// Validator checks rows of one upload. Lookups are memoised for its lifetime.
type Validator struct {
	orgID   string
	lookups *cachedLookups
}

func NewValidator(lookups Lookups, orgID string) *Validator {
	return &Validator{orgID: orgID, lookups: newCachedLookups(lookups)}
}

// ValidateRow runs every rule against row and returns all problems found. The
// returned input is only meaningful when there are no problems. A non-nil error means
// a lookup failed and the row could not be judged.
func (v *Validator) ValidateRow(ctx context.Context, row Row) (kpi.Input, []string, error) {
	var (
		in       kpi.Input
		problems []string
	)

	kra := strings.TrimSpace(row.KRA)
	if kra == "" {
		problems = append(problems, msgKRARequired)
	} else {
		ref, err := v.lookups.KRA(ctx, v.orgID, kra)
		if err != nil {
			return kpi.Input{}, nil, err
		}
		if !ref.Exists {
			problems = append(problems, fmt.Sprintf("KRA %s not found", kra))
		}
		in.KRAID = ref.ID
	}

	in.Title = strings.TrimSpace(row.Title)
	switch {
	case in.Title == "":
		problems = append(problems, msgTitleRequired)
	case !kpi.ValidTitle(in.Title):
		problems = append(problems, msgTitleLength)
	}

	in.Description = kpi.NormalizeDescription(row.Description)
	switch {
	case in.Description == "":
		problems = append(problems, msgDescriptionRequired)
	case !kpi.ValidDescription(in.Description):
		problems = append(problems, msgDescriptionLength)
	}

	status, ok := parseStatus(row.Status)
	if !ok {
		problems = append(problems, msgStatus)
	}
	in.Status = status

	if row.Overflow {
		problems = append(problems, msgTooManyDepartments)
	}

	mappings, cellProblems, err := v.validateDepartments(ctx, row.Departments)
	if err != nil {
		return kpi.Input{}, nil, err
	}
	in.Mappings = mappings
	problems = append(problems, cellProblems...)

	return in, problems, nil
}

func (v *Validator) validateDepartments(ctx context.Context, cells []string) ([]kpi.Mapping, []string, error) {
	if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
		return nil, []string{msgMissingFirstDepartment}, nil
	}

	var (
		mappings []kpi.Mapping
		problems []string
	)
	seenTeams := map[string]bool{}

	for i, raw := range cells {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		cell, cellProblems := ParseCell(raw, firstDepartmentColumn+i)
		problems = append(problems, cellProblems...)

		var department org.Ref
		if cell.Department != "" {
			ref, err := v.lookups.Department(ctx, v.orgID, cell.Department)
			if err != nil {
				return nil, nil, err
			}
			department = ref
			switch {
			case !ref.Exists:
				problems = append(problems, fmt.Sprintf("Department %s not found", cell.Department))
			case !ref.Active:
				problems = append(problems, fmt.Sprintf("Department %s is inactive", cell.Department))
			}
		}
		if len(cellProblems) > 0 {
			continue
		}

		if !validation.IsOrgName(cell.Team) {
			problems = append(problems, fmt.Sprintf("Invalid Team name %s", cell.Team))
			continue
		}
		teamKey := strings.ToLower(cell.Department) + "/" + strings.ToLower(cell.Team)
		if seenTeams[teamKey] {
			problems = append(problems, fmt.Sprintf("Duplicate team %s found", cell.Team))
			continue
		}
		seenTeams[teamKey] = true

		designationsValid := validation.IsOrgName(cell.rawDesignations)
		if !designationsValid {
			problems = append(problems, fmt.Sprintf("Invalid Designation name %s", cell.rawDesignations))
		}

		var team org.Ref
		if department.Usable() {
			ref, err := v.lookups.Team(ctx, v.orgID, department.ID, cell.Team)
			if err != nil {
				return nil, nil, err
			}
			team = ref
			switch {
			case !ref.Exists:
				problems = append(problems, fmt.Sprintf("Team %s not found in Department %s", cell.Team, cell.Department))
			case !ref.Active:
				problems = append(problems, fmt.Sprintf("Team %s is inactive", cell.Team))
			}
		}

		mapping := kpi.Mapping{DepartmentID: department.ID, TeamID: team.ID}
		complete := department.Usable() && team.Usable() && designationsValid
		seenDesignations := map[string]int{}
		for _, name := range cell.Designations {
			key := strings.ToLower(name)
			seenDesignations[key]++
			if seenDesignations[key] == 2 {
				problems = append(problems, fmt.Sprintf("Duplicate designation %s found", name))
				complete = false
			}
			if seenDesignations[key] > 1 || !team.Usable() || !designationsValid {
				continue
			}

			ref, err := v.lookups.Designation(ctx, v.orgID, team.ID, name)
			if err != nil {
				return nil, nil, err
			}
			switch {
			case !ref.Exists:
				problems = append(problems, fmt.Sprintf("Designation %s not found in Team %s", name, cell.Team))
				complete = false
			case !ref.Active:
				problems = append(problems, fmt.Sprintf("Designation %s is inactive", name))
				complete = false
			default:
				mapping.DesignationIDs = append(mapping.DesignationIDs, ref.ID)
			}
		}
		if complete {
			mappings = append(mappings, mapping)
		}
	}
	return mappings, problems, nil
}

func parseStatus(token string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	}
	return false, false
}

type lookupKey struct {
	kind   org.Kind
	parent string
	name   string
}

type cachedLookups struct {
	next  Lookups
	cache map[lookupKey]org.Ref
}

func newCachedLookups(next Lookups) *cachedLookups {
	return &cachedLookups{next: next, cache: map[lookupKey]org.Ref{}}
}

func (c *cachedLookups) KRA(ctx context.Context, orgID, name string) (org.Ref, error) {
	return c.get(lookupKey{org.KindKRA, "", name}, func() (org.Ref, error) {
		return c.next.KRA(ctx, orgID, name)
	})
}

func (c *cachedLookups) Department(ctx context.Context, orgID, name string) (org.Ref, error) {
	return c.get(lookupKey{org.KindDepartment, "", name}, func() (org.Ref, error) {
		return c.next.Department(ctx, orgID, name)
	})
}

func (c *cachedLookups) Team(ctx context.Context, orgID, departmentID, name string) (org.Ref, error) {
	return c.get(lookupKey{org.KindTeam, departmentID, name}, func() (org.Ref, error) {
		return c.next.Team(ctx, orgID, departmentID, name)
	})
}

func (c *cachedLookups) Designation(ctx context.Context, orgID, teamID, name string) (org.Ref, error) {
	return c.get(lookupKey{org.KindDesignation, teamID, name}, func() (org.Ref, error) {
		return c.next.Designation(ctx, orgID, teamID, name)
	})
}

func (c *cachedLookups) get(key lookupKey, load func() (org.Ref, error)) (org.Ref, error) {
	key.name = strings.ToLower(key.name)
	if ref, ok := c.cache[key]; ok {
		return ref, nil
	}
	ref, err := load()
	if err != nil {
		return org.Ref{}, err
	}
	c.cache[key] = ref
	return ref, nil
}
