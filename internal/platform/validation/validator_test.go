package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOrgName(t *testing.T) {
	valid := []string{"BE Team", "Lead", "QA-1", "Front|End", "Senior Software Engineer"}
	for _, name := range valid {
		assert.True(t, IsOrgName(name), name)
	}
	invalid := []string{"", " Lead", "Lead ", "BE  Team", "Team_1", "Lead (2)", "R&D"}
	for _, name := range invalid {
		assert.False(t, IsOrgName(name), name)
	}
}

type teamRequest struct {
	Name string `validate:"required,orgname,max=60"`
	Zone string `validate:"omitempty,timezone"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(teamRequest{Name: "Platform", Zone: "Europe/Paris"}))

	err := ValidateStruct(teamRequest{Name: "Platform_Team", Zone: "Moon/Base"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "Name", verr.Fields[0].Field)
	assert.Contains(t, verr.Fields[0].Reason, "letters, numbers")
	assert.Equal(t, "Zone", verr.Fields[1].Field)
}
