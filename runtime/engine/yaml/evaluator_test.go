package yaml

import (
	"testing"
)

func TestExpressionEvaluator_Eval(t *testing.T) {
	store := NewValueStore()
	store.SetNested("request.body", map[string]any{
		"url":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"limit": 10,
		"tags":  []any{"a", "b"},
	})
	store.Set("properties.lang", "en")
	store.Set("maybe", nil)

	e := NewExpressionEvaluator()

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"nested path", "request.body.url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"list index", "request.body.tags.1", "b"},
		{"arithmetic", "request.body.limit * 2", 20},
		{"string literal", `"native"`, "native"},
		{"comparison", `properties.lang == "en"`, true},
		{"undefined is nil", "request.body.missing", nil},
		{"null alias", "maybe == null", true},
		{"defined present", `defined("request.body.url")`, true},
		{"defined missing", `defined("request.body.missing")`, false},
		{"defined null", `defined("maybe")`, true},
		{"base64", `base64_encode("key")`, "a2V5"},
		{"base64 round trip", `base64_decode(base64_encode("x.y"))`, "x.y"},
		{"to_json", `to_json({"type": "object"})`, `{"type":"object"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Eval(tt.expr, store.All())
			if err != nil {
				t.Fatalf("Eval(%q) failed: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v (%T), want %v (%T)", tt.expr, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestExpressionEvaluator_CompileError(t *testing.T) {
	e := NewExpressionEvaluator()
	if _, err := e.Eval("1 +", map[string]any{}); err == nil {
		t.Error("Expected compile error")
	}
}

func TestExpressionEvaluator_DoesNotMutateValues(t *testing.T) {
	values := map[string]any{"a": 1}
	if _, err := NewExpressionEvaluator().Eval("a", values); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if _, ok := values["null"]; ok {
		t.Error("Expected caller map to be left untouched")
	}
}
