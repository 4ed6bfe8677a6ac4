package yaml

import (
	"context"
	"testing"

	"github.com/sflowg/supadata/runtime"
)

func TestExpressionParameters_Resolve(t *testing.T) {
	store := NewValueStore()
	store.Set("properties.lang", "de")

	params := NewExpressionParameters(NewExpressionEvaluator(), store.All(), map[string]any{
		"resource":  "youtube",
		"operation": "getTranscript",
		"videoId":   "=item.url",
		"lang":      "= properties.lang",
		"position":  "=index + 1",
		"note":      "==literal",
		"text":      true,
		"schema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"title": map[string]any{"type": "string"}},
			"required":   []any{"title"},
		},
	})

	item := runtime.Item{JSON: map[string]any{"url": "https://youtu.be/dQw4w9WgXcQ"}, Index: 2}
	got, err := params.Resolve(context.Background(), 2, item)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := map[string]any{
		"resource":  "youtube",
		"operation": "getTranscript",
		"videoId":   "https://youtu.be/dQw4w9WgXcQ",
		"lang":      "de",
		"position":  3,
		"note":      "=literal",
		"text":      true,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %v (%T), got %v (%T)", k, v, v, got[k], got[k])
		}
	}

	schema, ok := got["schema"].(map[string]any)
	if !ok {
		t.Fatalf("Expected schema object, got %T", got["schema"])
	}
	if schema["type"] != "object" {
		t.Errorf("Expected literal schema to be forwarded, got %v", schema)
	}
}

func TestExpressionParameters_PerItem(t *testing.T) {
	params := NewExpressionParameters(NewExpressionEvaluator(), map[string]any{}, map[string]any{
		"url": "=item.value",
	})

	items, _ := runtime.NewItems([]any{"a", "b"})
	for i, item := range items {
		got, err := params.Resolve(context.Background(), i, item)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if got["url"] != item.JSON["value"] {
			t.Errorf("Item %d: expected %v, got %v", i, item.JSON["value"], got["url"])
		}
	}
}

func TestExpressionParameters_Errors(t *testing.T) {
	params := NewExpressionParameters(NewExpressionEvaluator(), map[string]any{}, map[string]any{
		"url": "=item.url +",
	})
	if _, err := params.Resolve(context.Background(), 0, runtime.Item{}); err == nil {
		t.Error("Expected expression error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := NewExpressionParameters(NewExpressionEvaluator(), nil, map[string]any{"a": "b"})
	if _, err := ok.Resolve(ctx, 0, runtime.Item{}); err == nil {
		t.Error("Expected cancelled context error")
	}
}
