package varcodec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

func mustParse(t *testing.T, src string) Value {
	t.Helper()
	v, err := ParseValue([]byte(src))
	if err != nil {
		t.Fatalf("ParseValue(%q): %s", src, err)
	}
	return v
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		want      Kind
		primitive bool
	}{
		{"null", `null`, KindNull, false},
		{"bool", `false`, KindBool, true},
		{"integer zero", `0`, KindNumber, true},
		{"negative float", `-1.2345`, KindNumber, true},
		{"string", `"aaa"`, KindString, true},
		{"tuple", `["aaa","bbb"]`, KindArray, false},
		{"empty array", `[]`, KindArray, false},
		{"object with null", `{"a":"aaa","b":"bbb","c":null}`, KindObject, false},
		{"empty object", `{}`, KindObject, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := mustParse(t, test.src)
			got, err := Classify(v)
			if err != nil {
				t.Fatalf("Classify: %s", err)
			}
			if got != test.want {
				t.Errorf("Classify returned %v, want %v", got, test.want)
			}
			if got.Primitive() != test.primitive {
				t.Errorf("Primitive() = %v, want %v", got.Primitive(), test.primitive)
			}
			if got.HCL() == test.primitive {
				t.Errorf("HCL() = %v, want %v", got.HCL(), !test.primitive)
			}

			// Classification has no state: a second call over an equal
			// value must agree with the first.
			again, err := Classify(mustParse(t, test.src))
			if err != nil {
				t.Fatalf("Classify (second call): %s", err)
			}
			if again != got {
				t.Errorf("second Classify returned %v, first returned %v", again, got)
			}
		})
	}

	t.Run("rejects foreign types", func(t *testing.T) {
		if _, err := Classify(float64(1.5)); err == nil {
			t.Error("Classify accepted a float64")
		}
	})
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"null-bearing object", `{"a":"aaa","b":"bbb","c":null}`},
		{"nested array of objects", `[{"name":"aaa","type":"bbb"},{"name":null,"type":"ccc"}]`},
		{"negative float", `-1.2345`},
		{"integer zero", `0`},
		{"quoted string", `"aaa\"bbb"`},
		{"plain string", `"aaa"`},
		{"boolean", `false`},
		{"empty object", `{}`},
		{"empty array", `[]`},
		{"tuple of strings", `["aaa","bbb"]`},
		{"map of strings", `{"a":"aaa","b":"bbb","c":"ccc"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := mustParse(t, test.src)
			kind, err := Classify(v)
			if err != nil {
				t.Fatalf("Classify: %s", err)
			}

			raw, err := Encode(v)
			if err != nil {
				t.Fatalf("Encode: %s", err)
			}

			got, err := Decode(kind.HCL(), kind == KindString, raw)
			if err != nil {
				t.Fatalf("Decode: %s", err)
			}
			if diff := cmp.Diff(v, got); diff != "" {
				t.Errorf("wrong result\n%s", diff)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"string is not re-quoted", `"aaa"`, `aaa`},
		{"string keeps embedded quotes", `"aaa\"bbb"`, `aaa"bbb`},
		{"integer zero", `0`, `0`},
		{"negative float keeps precision", `-1.23450`, `-1.23450`},
		{"tuple", `["aaa","bbb"]`, `["aaa","bbb"]`},
		{"object keys are sorted", `{"b":"bbb","a":"aaa"}`, `{"a":"aaa","b":"bbb"}`},
		{"nested null survives", `{"c":null}`, `{"c":null}`},
		{"null", `null`, `null`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Encode(mustParse(t, test.src))
			if err != nil {
				t.Fatalf("Encode: %s", err)
			}
			if got != test.want {
				t.Errorf("Encode returned %q, want %q", got, test.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		_, err := Decode(true, false, `{"a":`)
		if !errors.Is(err, ErrMalformedValue) {
			t.Errorf("got %v, want ErrMalformedValue", err)
		}
	})

	t.Run("trailing garbage", func(t *testing.T) {
		_, err := Decode(false, false, `0 0`)
		if !errors.Is(err, ErrMalformedValue) {
			t.Errorf("got %v, want ErrMalformedValue", err)
		}
	})

	t.Run("string bypasses JSON parsing", func(t *testing.T) {
		got, err := Decode(false, true, `not json at all`)
		if err != nil {
			t.Fatalf("Decode: %s", err)
		}
		if got != Value("not json at all") {
			t.Errorf("got %#v, want the literal string", got)
		}
	})
}

// Structured values are sent with the hcl flag set, so the remote side
// parses them as expressions. Every structured encoding we emit must
// therefore be valid HCL expression syntax.
func TestEncodeHCLCompatibility(t *testing.T) {
	sources := []string{
		`["aaa","bbb"]`,
		`[{"name":"aaa","type":"bbb"}]`,
		`{"a":"aaa","b":"bbb","c":null}`,
		`{"a":-1.2345}`,
		`{"quote":"aaa\"bbb"}`,
		`[]`,
		`{}`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			raw, err := Encode(mustParse(t, src))
			if err != nil {
				t.Fatalf("Encode: %s", err)
			}
			_, diags := hclsyntax.ParseExpression([]byte(raw), "value.hcl", hcl.Pos{Line: 1, Column: 1})
			if diags.HasErrors() {
				t.Errorf("encoding %q does not parse as an HCL expression: %s", raw, diags.Error())
			}
		})
	}

	t.Run("tuple evaluates to the original strings", func(t *testing.T) {
		raw, err := Encode(mustParse(t, `["aaa","bbb"]`))
		if err != nil {
			t.Fatalf("Encode: %s", err)
		}
		expr, diags := hclsyntax.ParseExpression([]byte(raw), "value.hcl", hcl.Pos{Line: 1, Column: 1})
		if diags.HasErrors() {
			t.Fatalf("parse: %s", diags.Error())
		}
		got, diags := expr.Value(nil)
		if diags.HasErrors() {
			t.Fatalf("eval: %s", diags.Error())
		}
		want := cty.TupleVal([]cty.Value{cty.StringVal("aaa"), cty.StringVal("bbb")})
		if !got.RawEquals(want) {
			t.Errorf("evaluated to %#v, want %#v", got, want)
		}
	})
}

func TestParseValuePreservesNumberText(t *testing.T) {
	v := mustParse(t, `-1.2345`)
	n, ok := v.(json.Number)
	if !ok {
		t.Fatalf("got %T, want json.Number", v)
	}
	if n.String() != "-1.2345" {
		t.Errorf("number text is %q, want %q", n.String(), "-1.2345")
	}
}
