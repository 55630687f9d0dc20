package schema

import (
	"fmt"

	"github.com/ArnavBalyan/concierge/pkg/domain"
	"github.com/ArnavBalyan/concierge/pkg/state"
)

// Outcome classifies a validation.
type Outcome int

const (
	// Complete means every required parameter is present and coerced.
	Complete Outcome = iota
	// Incomplete means some required parameters are still missing.
	Incomplete
	// Invalid means a supplied value failed coercion.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Validation is the result of checking supplied arguments against a task schema.
type Validation struct {
	Outcome Outcome
	// Args holds every supplied value that coerced successfully, plus filled defaults.
	Args map[string]any
	// Missing lists required parameters not yet supplied, in schema order.
	Missing []domain.Param
	// Err is set when Outcome is Invalid.
	Err *domain.ParameterTypeError
}

// MissingNames lists the missing parameter names in schema order.
func (v Validation) MissingNames() []string {
	names := make([]string, len(v.Missing))
	for i, p := range v.Missing {
		names[i] = p.Name
	}
	return names
}

// Validate checks supplied arguments against params.
//
// Parameters are visited in schema order. A value that fails coercion makes the
// whole validation Invalid immediately. A required parameter that is omitted or
// explicitly null is missing. A declared default fills in only when the parameter
// is omitted entirely. Arguments the schema does not declare are ignored.
func Validate(params []domain.Param, supplied map[string]any) Validation {
	v := Validation{Args: make(map[string]any, len(params))}

	for _, p := range params {
		value, present := supplied[p.Name]
		switch {
		case !present && hasDefault(p):
			v.Args[p.Name] = state.DeepCopy(p.Default)
			continue
		case !present || value == nil:
			if p.Required {
				v.Missing = append(v.Missing, p)
			} else if present {
				v.Args[p.Name] = nil
			}
			continue
		}

		typ, err := ForParam(p)
		if err != nil {
			// Schemas are checked at registration; this only trips on hand-built tasks.
			v.Outcome = Invalid
			v.Err = &domain.ParameterTypeError{Parameter: p.Name, Expected: string(p.Type), Value: value, Reason: err.Error()}
			return v
		}
		coerced, err := typ.Coerce(value)
		if err != nil {
			v.Outcome = Invalid
			v.Err = &domain.ParameterTypeError{
				Parameter: p.Name,
				Expected:  string(typ.Name()),
				Value:     value,
				Reason:    err.Error(),
			}
			return v
		}
		v.Args[p.Name] = coerced
	}

	if len(v.Missing) > 0 {
		v.Outcome = Incomplete
	}
	return v
}

// CheckParams verifies a parameter schema at registration time: names are
// unique and non-empty, types are supported, and declared defaults coerce.
// It returns the canonicalized schema.
func CheckParams(params []domain.Param) ([]domain.Param, error) {
	out := make([]domain.Param, len(params))
	seen := make(map[string]bool, len(params))

	for i, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true

		typ, err := ForParam(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		p.Type = typ.Name()

		if hasDefault(p) && p.Default != nil {
			coerced, err := typ.Coerce(p.Default)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: default: %w", p.Name, err)
			}
			p.Default = coerced
			p.HasDefault = true
		}
		if p.HasDefault {
			p.Required = false
		}
		out[i] = p
	}
	return out, nil
}

func hasDefault(p domain.Param) bool {
	return p.HasDefault || p.Default != nil
}
