package schema

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

var addToCart = []domain.Param{
	{Name: "product_id", Type: domain.TypeString, Required: true},
	{Name: "quantity", Type: domain.TypeInteger, Required: true},
	{Name: "gift_wrap", Type: domain.TypeBoolean, Default: false, HasDefault: true},
	{Name: "note", Type: domain.TypeString},
}

func TestValidate_Complete(t *testing.T) {
	v := Validate(addToCart, map[string]any{"product_id": "X", "quantity": float64(2)})

	if v.Outcome != Complete {
		t.Fatalf("Outcome = %s, want complete (err=%v missing=%v)", v.Outcome, v.Err, v.MissingNames())
	}
	want := map[string]any{"product_id": "X", "quantity": 2, "gift_wrap": false}
	if !reflect.DeepEqual(v.Args, want) {
		t.Errorf("Args = %#v, want %#v", v.Args, want)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	args := map[string]any{"product_id": "X", "quantity": "3", "note": "fragile"}
	first := Validate(addToCart, args)
	second := Validate(addToCart, args)

	if first.Outcome != Complete || second.Outcome != Complete {
		t.Fatalf("outcomes = %s, %s; want complete twice", first.Outcome, second.Outcome)
	}
	if !reflect.DeepEqual(first.Args, second.Args) {
		t.Errorf("validation is not deterministic: %#v vs %#v", first.Args, second.Args)
	}
}

func TestValidate_IncompleteKeepsValidSubset(t *testing.T) {
	v := Validate(addToCart, map[string]any{"product_id": "X"})

	if v.Outcome != Incomplete {
		t.Fatalf("Outcome = %s, want incomplete", v.Outcome)
	}
	if got := v.MissingNames(); !reflect.DeepEqual(got, []string{"quantity"}) {
		t.Errorf("Missing = %v, want [quantity]", got)
	}
	if v.Args["product_id"] != "X" {
		t.Errorf("valid subset lost: %#v", v.Args)
	}
}

func TestValidate_MissingInSchemaOrder(t *testing.T) {
	v := Validate(addToCart, map[string]any{})
	if got := v.MissingNames(); !reflect.DeepEqual(got, []string{"product_id", "quantity"}) {
		t.Errorf("Missing = %v, want [product_id quantity]", got)
	}
}

func TestValidate_InvalidBeatsIncomplete(t *testing.T) {
	params := []domain.Param{
		{Name: "min_price", Type: domain.TypeFloat, Required: true},
		{Name: "max_price", Type: domain.TypeFloat, Required: true},
		{Name: "category", Type: domain.TypeString, Required: true},
	}

	v := Validate(params, map[string]any{"min_price": "abc", "max_price": 10})

	if v.Outcome != Invalid {
		t.Fatalf("Outcome = %s, want invalid", v.Outcome)
	}
	if v.Err.Parameter != "min_price" || v.Err.Expected != "float" || v.Err.Value != "abc" {
		t.Errorf("Err = %+v", v.Err)
	}
}

func TestValidate_NullAndDefaults(t *testing.T) {
	tests := []struct {
		name        string
		supplied    map[string]any
		wantOutcome Outcome
		wantArgs    map[string]any
	}{
		{
			name:        "explicit null on required counts as missing",
			supplied:    map[string]any{"product_id": nil, "quantity": 1},
			wantOutcome: Incomplete,
			wantArgs:    map[string]any{"quantity": 1, "gift_wrap": false},
		},
		{
			name:        "explicit null suppresses default",
			supplied:    map[string]any{"product_id": "X", "quantity": 1, "gift_wrap": nil},
			wantOutcome: Complete,
			wantArgs:    map[string]any{"product_id": "X", "quantity": 1, "gift_wrap": nil},
		},
		{
			name:        "empty string is a value",
			supplied:    map[string]any{"product_id": "", "quantity": 1},
			wantOutcome: Complete,
			wantArgs:    map[string]any{"product_id": "", "quantity": 1, "gift_wrap": false},
		},
		{
			name:        "unknown arguments are ignored",
			supplied:    map[string]any{"product_id": "X", "quantity": 1, "color": "red"},
			wantOutcome: Complete,
			wantArgs:    map[string]any{"product_id": "X", "quantity": 1, "gift_wrap": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(addToCart, tt.supplied)
			if v.Outcome != tt.wantOutcome {
				t.Fatalf("Outcome = %s, want %s", v.Outcome, tt.wantOutcome)
			}
			if !reflect.DeepEqual(v.Args, tt.wantArgs) {
				t.Errorf("Args = %#v, want %#v", v.Args, tt.wantArgs)
			}
		})
	}
}

func TestCheckParams(t *testing.T) {
	t.Run("canonicalizes aliases and defaults", func(t *testing.T) {
		out, err := CheckParams([]domain.Param{
			{Name: "n", Type: "int", Required: true, Default: "5"},
		})
		if err != nil {
			t.Fatalf("CheckParams() error = %v", err)
		}
		p := out[0]
		if p.Type != domain.TypeInteger || p.Default != 5 || !p.HasDefault || p.Required {
			t.Errorf("param = %+v", p)
		}
	})

	bad := map[string][]domain.Param{
		"duplicate":        {{Name: "a", Type: "string"}, {Name: "a", Type: "int"}},
		"unsupported type": {{Name: "a", Type: "list"}},
		"enum no options":  {{Name: "a", Type: "enum"}},
		"bad default":      {{Name: "a", Type: "int", Default: "x"}},
		"no name":          {{Type: "string"}},
	}
	for name, params := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := CheckParams(params); err == nil {
				t.Error("CheckParams() should fail")
			}
		})
	}
}

func TestInputSchema(t *testing.T) {
	params := []domain.Param{
		{Name: "product_id", Type: domain.TypeString, Required: true, Description: "SKU"},
		{Name: "method", Type: domain.TypeEnum, Options: []string{"card", "pix"}, Default: "card", HasDefault: true},
	}

	raw, err := MarshalInputSchema(params)
	if err != nil {
		t.Fatalf("MarshalInputSchema() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "object" {
		t.Errorf("type = %v", got["type"])
	}
	if !reflect.DeepEqual(got["required"], []any{"product_id"}) {
		t.Errorf("required = %v", got["required"])
	}
	props := got["properties"].(map[string]any)
	method := props["method"].(map[string]any)
	if !reflect.DeepEqual(method["enum"], []any{"card", "pix"}) || method["default"] != "card" {
		t.Errorf("method = %v", method)
	}
}
