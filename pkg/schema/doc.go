// Package schema validates task arguments against a parameter schema.
//
// It defines the semantic types a parameter may declare (string, integer, float,
// boolean and enum) and coerces the loosely-typed values an agent sends into
// canonical Go values. Validate classifies a set of supplied arguments:
//
//	v := schema.Validate(task.Params, map[string]any{"product_id": "X"})
//	switch v.Outcome {
//	case schema.Complete:   // v.Args is ready for the task body
//	case schema.Incomplete: // v.Missing lists what to ask for next
//	case schema.Invalid:    // v.Err names the parameter that failed coercion
//	}
//
// A failed coercion is always reported as Invalid, never silently replaced by
// a default. InputSchema renders the same parameter list as JSON Schema for
// tool-calling agents.
package schema
