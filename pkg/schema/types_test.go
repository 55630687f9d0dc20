package schema

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   any
		want    any
		wantErr bool
	}{
		{"string ok", String(), "hello", "hello", false},
		{"string empty", String(), "", "", false},
		{"string rejects number", String(), 42, nil, true},

		{"int native", Int(), 7, 7, false},
		{"int64", Int(), int64(7), 7, false},
		{"int whole float", Int(), 2.0, 2, false},
		{"int fractional float", Int(), 2.5, nil, true},
		{"int json.Number", Int(), json.Number("12"), 12, false},
		{"int numeric string", Int(), " 3 ", 3, false},
		{"int whole float string", Int(), "4.0", 4, false},
		{"int bad string", Int(), "three", nil, true},
		{"int rejects bool", Int(), true, nil, true},
		{"int uint", Int(), uint(9), 9, false},
		{"int uint overflow", Int(), uint(math.MaxUint64), nil, true},
		{"int uint64 overflow", Int(), uint64(math.MaxUint64), nil, true},
		{"int float at 2^63", Int(), 9.223372036854775808e18, nil, true},
		{"int string at 2^63", Int(), "9223372036854775808", nil, true},
		{"int json.Number at 2^63", Int(), json.Number("9223372036854775808"), nil, true},
		{"int min", Int(), float64(math.MinInt64), math.MinInt64, false},

		{"float native", Float(), 1.5, 1.5, false},
		{"float from int", Float(), 10, 10.0, false},
		{"float numeric string", Float(), "9.99", 9.99, false},
		{"float bad string", Float(), "abc", nil, true},
		{"float NaN string", Float(), "NaN", nil, true},
		{"float rejects bool", Float(), false, nil, true},
		{"float uint8", Float(), uint8(3), 3.0, false},
		{"float uint16", Float(), uint16(300), 300.0, false},
		{"float json.Number", Float(), json.Number("2.5"), 2.5, false},

		{"bool native", Bool(), true, true, false},
		{"bool yes", Bool(), "Yes", true, false},
		{"bool off", Bool(), "off", false, false},
		{"bool one", Bool(), 1, true, false},
		{"bool float zero", Bool(), 0.0, false, false},
		{"bool two", Bool(), 2, nil, true},
		{"bool int64", Bool(), int64(1), true, false},
		{"bool float32", Bool(), float32(0), false, false},
		{"bool json.Number", Bool(), json.Number("1"), true, false},
		{"bool uint8 two", Bool(), uint8(2), nil, true},
		{"bool gibberish", Bool(), "maybe", nil, true},

		{"enum exact", Enum("card", "pix"), "pix", "pix", false},
		{"enum case-insensitive", Enum("Card", "Pix"), "card", "Card", false},
		{"enum unknown", Enum("card", "pix"), "cash", nil, true},
		{"enum non-string", Enum("1", "2"), 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Coerce(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Coerce(%v) = %#v, want %#v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		options []string
		want    string
		wantErr bool
	}{
		{"string", nil, "string", false},
		{"str", nil, "string", false},
		{"int", nil, "integer", false},
		{"Integer", nil, "integer", false},
		{"number", nil, "float", false},
		{"bool", nil, "boolean", false},
		{"enum", []string{"a"}, "enum", false},
		{"enum", nil, "", true},
		{"list", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in, tt.options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && string(got.Name()) != tt.want {
				t.Errorf("ParseType(%q) = %s, want %s", tt.in, got.Name(), tt.want)
			}
		})
	}
}
