package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match what clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a rule's fields and conditions.
// Returns an error wrapping ErrInvalidRule describing every problem found.
func Validate(r *Rule) error {
	var problems []string

	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name: required")
	}
	if r.Conditions == nil {
		problems = append(problems, "conditions: required")
	} else {
		problems = append(problems, validateConditions(r.Conditions)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRule, strings.Join(problems, "; "))
	}
	return nil
}

func validateConditions(c Conditions) []string {
	if _, ok := c.(undecodable); ok {
		return []string{"conditions: unreadable"}
	}

	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if p, ok := c.(PopularityConditions); ok && p.MinVoteAverage == nil && p.MinPopularity == nil {
		problems = append(problems, "conditions: minVoteAverage or minPopularity is required")
	}
	return problems
}

func describe(fe validator.FieldError) string {
	// Namespace is "TypeName.field[i]"; drop the type name.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s: must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be > %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s: required", field)
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
