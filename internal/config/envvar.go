package config

import (
	"fmt"

	"github.com/sflowg/supadata/runtime"
)

// resolveValue walks nested maps and lists, substituting ${VAR} and
// ${VAR:default} strings from the environment.
func resolveValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			resolved, err := resolveValue(child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			resolved, err := resolveValue(child)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return runtime.ResolveEnvVar(v)
	}
}

func resolveString(s string) (string, error) {
	v, err := runtime.ResolveEnvVar(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}
