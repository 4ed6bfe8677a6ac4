package runtime

import (
	"context"
	"fmt"
)

// Item is one unit of input flowing into a node.
type Item struct {
	JSON  map[string]any `json:"json"`
	Index int            `json:"index"`
}

// Record is one unit of node output. Item is the index of the input item
// that produced it, so lists and error records stay correlated with their source.
type Record struct {
	JSON map[string]any `json:"json"`
	Item int            `json:"item"`
}

// Node is the per-step invocation context of a task that runs once per item.
type Node struct {
	StepID         string
	Items          []Item
	Parameters     ParameterStore
	ContinueOnFail bool
}

// NewItems wraps raw values into items. Objects are used as-is; scalars are
// wrapped as {"value": v}. A nil input yields a single empty item so a node
// with only literal parameters still runs once.
func NewItems(raw any) ([]Item, error) {
	switch v := raw.(type) {
	case nil:
		return []Item{{JSON: map[string]any{}, Index: 0}}, nil
	case []any:
		items := make([]Item, 0, len(v))
		for i, entry := range v {
			items = append(items, Item{JSON: itemJSON(entry), Index: i})
		}
		return items, nil
	case []map[string]any:
		items := make([]Item, 0, len(v))
		for i, entry := range v {
			items = append(items, Item{JSON: entry, Index: i})
		}
		return items, nil
	case map[string]any:
		return []Item{{JSON: v, Index: 0}}, nil
	default:
		return nil, fmt.Errorf("items must be a list or an object, got %T", raw)
	}
}

func itemJSON(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}

// StaticParameters resolves to the same values for every item.
type StaticParameters map[string]any

func (p StaticParameters) Resolve(_ context.Context, _ int, _ Item) (map[string]any, error) {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, nil
}

// RecordsToList converts records into the plain list form stored in execution state.
func RecordsToList(records []Record) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any{"json": r.JSON, "item": r.Item})
	}
	return out
}
