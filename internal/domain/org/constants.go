package org

// Kind names one level of the organisation structure.
type Kind string

const (
	KindDepartment  Kind = "department"
	KindTeam        Kind = "team"
	KindDesignation Kind = "designation"
	KindKRA         Kind = "kra"
)

func (k Kind) table() string {
	switch k {
	case KindDepartment:
		return "departments"
	case KindTeam:
		return "teams"
	case KindDesignation:
		return "designations"
	case KindKRA:
		return "kras"
	}
	return ""
}

// parentColumn is empty for kinds that hang directly off the organisation.
func (k Kind) parentColumn() string {
	switch k {
	case KindTeam:
		return "department_id"
	case KindDesignation:
		return "team_id"
	}
	return ""
}

func (k Kind) parent() Kind {
	switch k {
	case KindTeam:
		return KindDepartment
	case KindDesignation:
		return KindTeam
	}
	return ""
}

func (k Kind) Valid() bool {
	return k.table() != ""
}

const maxNameLength = 100
