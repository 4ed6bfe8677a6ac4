package yaml

import (
	"context"
	"fmt"
	"strings"

	"github.com/sflowg/supadata/runtime"
)

// ExpressionParameters resolves node parameters per item.
//
// A string starting with "=" is an expression evaluated with the execution
// state plus item (the item's JSON) and index in scope; "==" escapes a literal
// leading "=". Every other value is literal. Maps and lists resolve recursively,
// so a JSON Schema given as a literal object is forwarded untouched.
type ExpressionParameters struct {
	evaluator runtime.ExpressionEvaluator
	values    map[string]any
	params    map[string]any
}

func NewExpressionParameters(evaluator runtime.ExpressionEvaluator, values map[string]any, params map[string]any) *ExpressionParameters {
	return &ExpressionParameters{
		evaluator: evaluator,
		values:    values,
		params:    params,
	}
}

func (p *ExpressionParameters) Resolve(ctx context.Context, index int, item runtime.Item) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope := make(map[string]any, len(p.values)+len(item.JSON)+2)
	for k, v := range p.values {
		scope[k] = v
	}
	flatten(scope, "item", item.JSON)
	scope["index"] = index

	out := make(map[string]any, len(p.params))
	for name, raw := range p.params {
		v, err := p.resolve(scope, name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func (p *ExpressionParameters) resolve(scope map[string]any, path string, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		if strings.HasPrefix(v, "==") {
			return v[1:], nil
		}
		if !strings.HasPrefix(v, "=") {
			return v, nil
		}
		result, err := p.evaluator.Eval(strings.TrimSpace(v[1:]), scope)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: error evaluating expression '%s': %w", path, v[1:], err)
		}
		return result, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			resolved, err := p.resolve(scope, path+"."+k, child)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			resolved, err := p.resolve(scope, fmt.Sprintf("%s[%d]", path, i), child)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return raw, nil
	}
}
