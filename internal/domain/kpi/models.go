package kpi

import "time"

// Mapping scopes a KPI to designations within one team of one department.
type Mapping struct {
	DepartmentID   string   `json:"departmentId" validate:"required"`
	TeamID         string   `json:"teamId" validate:"required"`
	DesignationIDs []string `json:"designationIds" validate:"required,min=1,dive,required"`
}

// KPI is the current (highest numbered) version of a KPI.
type KPI struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisationId"`
	Version        int       `json:"versionNumber"`
	KRAID          string    `json:"kraId"`
	KRAName        string    `json:"kraName"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         bool      `json:"status"`
	Mappings       []Mapping `json:"mappings"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Version struct {
	Number      int       `json:"versionNumber"`
	KRAID       string    `json:"kraId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      bool      `json:"status"`
	Mappings    []Mapping `json:"mappings"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Input struct {
	KRAID       string    `json:"kraId" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Status      bool      `json:"status"`
	Mappings    []Mapping `json:"mappings" validate:"required,min=1,dive"`
}

type ListFilter struct {
	KRAID        string
	DepartmentID string
	Status       *bool
	Search       string
	Limit        int
	Offset       int
}
