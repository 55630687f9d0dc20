package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// Type defines the contract for parameter coercion.
// Implementations accept the loosely-typed values agents send (JSON numbers,
// numeric strings, "yes"/"no") and return the canonical Go value.
type Type interface {
	// Name returns the semantic type name (e.g., "string", "integer").
	Name() domain.ParamType
	// Coerce converts value to the canonical representation or fails.
	Coerce(value any) (any, error)
}

// StringType accepts strings only.
type StringType struct{}

func (t *StringType) Name() domain.ParamType { return domain.TypeString }

func (t *StringType) Coerce(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// IntType accepts whole numbers and numeric strings and returns int.
type IntType struct{}

func (t *IntType) Name() domain.ParamType { return domain.TypeInteger }

func (t *IntType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return fromUint(v)
	case float32:
		return wholeFloat(float64(v))
	case float64:
		// JSON decoding produces float64 for every number
		return wholeFloat(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v.String())
		}
		return wholeFloat(f)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", v)
		}
		return wholeFloat(f)
	default:
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
}

func fromUint(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("value %d overflows int", v)
	}
	return int(v), nil
}

// wholeFloat converts f to int when it is integral and in range.
// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
func wholeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%v overflows int", f)
	}
	return int(f), nil
}

// number widens any Go numeric value (and json.Number) to float64.
func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// FloatType accepts any finite number or numeric string and returns float64.
type FloatType struct{}

func (t *FloatType) Name() domain.ParamType { return domain.TypeFloat }

func (t *FloatType) Coerce(value any) (any, error) {
	var f float64
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v)
		}
		f = parsed
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v.String())
		}
		f = parsed
	default:
		n, ok := number(value)
		if !ok {
			return nil, fmt.Errorf("expected float, got %T", value)
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not a finite number", value)
	}
	return f, nil
}

// BoolType accepts booleans, 0/1 of any numeric type and the usual yes/no spellings.
type BoolType struct{}

func (t *BoolType) Name() domain.ParamType { return domain.TypeBoolean }

func (t *BoolType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "on", "1":
			return true, nil
		case "false", "no", "n", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean", v)
	}
	if n, ok := number(value); ok && (n == 0 || n == 1) {
		return n == 1, nil
	}
	return nil, fmt.Errorf("expected boolean, got %T (%v)", value, value)
}

// EnumType accepts one of a closed set of labels.
// Matching is exact first, then case-insensitive; the declared label is returned.
type EnumType struct {
	options []string
}

func (t *EnumType) Name() domain.ParamType { return domain.TypeEnum }

// Options returns the allowed labels.
func (t *EnumType) Options() []string { return t.options }

func (t *EnumType) Coerce(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected one of %v, got %T", t.options, value)
	}
	for _, opt := range t.options {
		if opt == s {
			return opt, nil
		}
	}
	for _, opt := range t.options {
		if strings.EqualFold(opt, strings.TrimSpace(s)) {
			return opt, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %v", s, t.options)
}

// --- Factory Functions ---

// String creates a string type.
func String() Type { return &StringType{} }

// Int creates an integer type.
func Int() Type { return &IntType{} }

// Float creates a float type.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type.
func Bool() Type { return &BoolType{} }

// Enum creates an enumerated string type over options.
func Enum(options ...string) Type {
	return &EnumType{options: options}
}

// ParseType resolves a declared type name. Common aliases ("int", "bool",
// "number", "str") are accepted; options are required for enums.
func ParseType(name string, options []string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str":
		return String(), nil
	case "integer", "int":
		return Int(), nil
	case "float", "number", "double":
		return Float(), nil
	case "boolean", "bool":
		return Bool(), nil
	case "enum":
		if len(options) == 0 {
			return nil, fmt.Errorf("enum requires at least one option")
		}
		return Enum(options...), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", name)
	}
}

// ForParam resolves the Type of a parameter.
func ForParam(p domain.Param) (Type, error) {
	return ParseType(string(p.Type), p.Options)
}

// Normalize maps an alias to its canonical ParamType.
func Normalize(name string) (domain.ParamType, error) {
	t, err := ParseType(name, []string{"_"})
	if err != nil {
		return "", err
	}
	return t.Name(), nil
}
