package kpiimport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() Row {
	return Row{
		Line:        2,
		KRA:         "Delivery",
		Title:       "Communication",
		Description: validDescription,
		Status:      "y",
		Departments: []string{"Engineering [BE Team (Lead)]", "", "", "", "", "", "", "", "", ""},
	}
}

func TestValidateRowAccumulatesEveryProblem(t *testing.T) {
	r := Row{
		KRA:         "Hiring",
		Title:       "",
		Description: "Too short",
		Status:      "maybe",
		Departments: []string{
			"Engineering [BE Team (Lead|Intern|Architect)]",
			"Sales [Closers (AE)]",
			"Engineering [BE Team (SDE)]",
			"Engineering [Platform_Team (SDE)]",
		},
	}

	_, problems, err := NewValidator(newFakeLookups(), "org-1").ValidateRow(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"KRA Hiring not found",
		msgTitleRequired,
		msgDescriptionLength,
		msgStatus,
		"Designation Intern is inactive",
		"Designation Architect not found in Team BE Team",
		"Department Sales is inactive",
		"Duplicate team BE Team found",
		"Invalid Team name Platform_Team",
	}, problems)
}

func TestValidateRowStatusTokens(t *testing.T) {
	v := NewValidator(newFakeLookups(), "org-1")
	for token, want := range map[string]bool{"Yes": true, "Y": true, "yes": true, "NO": false, "n": false} {
		r := validRow()
		r.Status = token
		in, problems, err := v.ValidateRow(context.Background(), r)
		require.NoError(t, err)
		require.Empty(t, problems, token)
		assert.Equal(t, want, in.Status, token)
	}
}

func TestValidateRowDescriptionIsUnescaped(t *testing.T) {
	r := validRow()
	r.Description = strings.Repeat("Q&amp;A ", 10)

	in, problems, err := NewValidator(newFakeLookups(), "org-1").ValidateRow(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{msgDescriptionLength}, problems, "unescaped text is 39 characters")
	assert.True(t, strings.HasPrefix(in.Description, "Q&A"))
}

func TestValidateRowDesignationShape(t *testing.T) {
	r := validRow()
	r.Departments[0] = "Engineering [BE Team (Lead|SDE_2)]"

	_, problems, err := NewValidator(newFakeLookups(), "org-1").ValidateRow(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid Designation name Lead|SDE_2"}, problems)
}

func TestValidateRowOverflowColumns(t *testing.T) {
	r := validRow()
	r.Overflow = true
	_, problems, err := NewValidator(newFakeLookups(), "org-1").ValidateRow(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{msgTooManyDepartments}, problems)
}

func TestValidatorMemoisesLookups(t *testing.T) {
	lookups := newFakeLookups()
	v := NewValidator(lookups, "org-1")
	for i := 0; i < 3; i++ {
		_, problems, err := v.ValidateRow(context.Background(), validRow())
		require.NoError(t, err)
		require.Empty(t, problems)
	}
	assert.Equal(t, 4, lookups.calls, "kra, department, team and designation resolved once each")
}
