package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/streamkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("path", "in.txt").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("path", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("path", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorMinRange(t *testing.T) {
	tests := []struct {
		name    string
		v       *Validator
		wantErr bool
	}{
		{"min ok", New().Min("count", 0, 0), false},
		{"min below", New().Min("count", -1, 0), true},
		{"range ok", New().Range("workers", 4, 1, 8), false},
		{"range below", New().Range("workers", 0, 1, 8), true},
		{"range above", New().Range("workers", 9, 1, 8), true},
		{"less ok", New().Less("bounds", 0, 1), false},
		{"less equal", New().Less("bounds", 1, 1), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v (%v)", tc.v.HasErrors(), tc.wantErr, tc.v.Errors())
			}
		})
	}
}

func TestValidatorRegexp(t *testing.T) {
	if New().Regexp("pattern", `\s*,\s*`).HasErrors() {
		t.Error("expected valid pattern to pass")
	}
	if !New().Regexp("pattern", "(").HasErrors() {
		t.Error("expected unbalanced pattern to fail")
	}
}

func TestValidatorOneOf(t *testing.T) {
	if New().OneOf("format", "yaml", []string{"yaml", "json"}).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if !New().OneOf("format", "xml", []string{"yaml", "json"}).HasErrors() {
		t.Error("expected error for disallowed value")
	}
	if New().OneOf("format", "", []string{"yaml"}).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Min("count", 5, 0).Validate(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := New().
		Min("count", -1, 0).
		Custom(false, "seed", "must be set").
		Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.CodeOf(err) != errors.ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT, got %s", errors.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "count: must be at least 0") || !strings.Contains(err.Error(), "seed: must be set") {
		t.Errorf("expected both field messages, got %q", err.Error())
	}
	appErr, _ := errors.AsAppError(err)
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

type limits struct {
	Workers  int    `mapstructure:"workers" validate:"gte=0,lte=64"`
	MinChunk int    `mapstructure:"min_chunk" validate:"gte=1"`
	Mode     string `mapstructure:"mode" validate:"omitempty,oneof=sequential parallel"`
}

type wrapper struct {
	Stream limits `mapstructure:"stream"`
}

func TestValidate_Struct(t *testing.T) {
	if err := Validate(wrapper{Stream: limits{Workers: 4, MinChunk: 1}}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	err := Validate(wrapper{Stream: limits{Workers: 100, MinChunk: 0, Mode: "fast"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", errors.CodeOf(err))
	}
	for _, want := range []string{
		"stream.workers: must be at most 64",
		"stream.min_chunk: must be at least 1",
		"stream.mode: must be one of: sequential parallel",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Workers":    "workers",
		"MinChunk":   "min_chunk",
		"LeafFactor": "leaf_factor",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
