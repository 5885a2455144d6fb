package analysis

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/linnemanlabs/warden/internal/incident"
)

// FieldViolation is one failed rule on one field.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// SchemaViolationError lists every field of an analysis (or status) that
// failed validation. It matches incident.ErrSchemaViolation with errors.Is.
type SchemaViolationError struct {
	Fields []FieldViolation
}

func (e *SchemaViolationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		p := f.Field + ": " + f.Rule
		if f.Param != "" {
			p += "=" + f.Param
		}
		parts = append(parts, p)
	}
	return "schema violation: " + strings.Join(parts, ", ")
}

// Is reports whether target is incident.ErrSchemaViolation.
func (e *SchemaViolationError) Is(target error) bool {
	return target == incident.ErrSchemaViolation
}

// Validator implements incident.Validator with go-playground/validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator with the incident enum rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{
		"incident_action":   func(fl validator.FieldLevel) bool { return incident.Action(fl.Field().String()).Valid() },
		"incident_priority": func(fl validator.FieldLevel) bool { return incident.Priority(fl.Field().String()).Valid() },
		"incident_status":   func(fl validator.FieldLevel) bool { return incident.Status(fl.Field().String()).Valid() },
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	v.RegisterStructValidation(validateTarget, incident.Analysis{})
	return &Validator{v: v}
}

// validateTarget enforces that actions acting on a resource name one.
func validateTarget(sl validator.StructLevel) {
	a, ok := sl.Current().Interface().(incident.Analysis)
	if !ok {
		return
	}
	if a.Action.RequiresTarget() && (a.Target == nil || strings.TrimSpace(*a.Target) == "") {
		sl.ReportError(a.Target, "target", "Target", "required_for_action", string(a.Action))
	}
}

// Validate returns a unchanged when it satisfies the analysis contract, or a
// *SchemaViolationError. Nothing is coerced.
func (val *Validator) Validate(a incident.Analysis) (incident.Analysis, error) {
	if err := val.v.Struct(a); err != nil {
		return incident.Analysis{}, toSchemaError(err)
	}
	return a, nil
}

// ValidateStatus parses a requested status string.
func (val *Validator) ValidateStatus(s string) (incident.Status, error) {
	if err := val.v.Var(s, "required,incident_status"); err != nil {
		return "", toSchemaError(err, "status")
	}
	return incident.Status(s), nil
}

func toSchemaError(err error, field ...string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", incident.ErrSchemaViolation, err)
	}
	out := &SchemaViolationError{Fields: make([]FieldViolation, 0, len(verrs))}
	for _, fe := range verrs {
		name := fe.Field()
		if name == "" && len(field) > 0 {
			name = field[0]
		}
		out.Fields = append(out.Fields, FieldViolation{Field: name, Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
