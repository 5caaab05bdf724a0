// Package validation wraps go-playground/validator with this module's custom rules.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagOrgName accepts names made of letters, digits, hyphens and pipes separated by
// single spaces.
const TagOrgName = "orgname"

var (
	validate    = validator.New()
	orgNameExpr = regexp.MustCompile(`^[A-Za-z0-9|-]+( [A-Za-z0-9|-]+)*$`)
)

func init() {
	err := validate.RegisterValidation(TagOrgName, func(fl validator.FieldLevel) bool {
		if fl.Field().String() == "" {
			return true
		}
		return orgNameExpr.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("failed to register custom validation: %v", err))
	}
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field  string
	Reason string
}

type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return strings.Join(parts, ", ")
}

// ValidateStruct checks s against its validate tags.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Reason: reason(fe)})
	}
	return out
}

// IsOrgName reports whether value satisfies the orgname rule. Empty is not a name.
func IsOrgName(value string) bool {
	if value == "" {
		return false
	}
	return validate.Var(value, TagOrgName) == nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case TagOrgName:
		return "must contain only letters, numbers, hyphens, pipes and single spaces"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "timezone":
		return "must be a valid IANA time zone"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
}
