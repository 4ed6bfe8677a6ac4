package runtime

import "context"

// FlowLoader loads flow definitions from files.
type FlowLoader interface {
	Extensions() []string
	Load(filePath string) (Flow, error)
}

// ExpressionEvaluator evaluates an expression against a flat value namespace.
type ExpressionEvaluator interface {
	Eval(expression string, values map[string]any) (any, error)
}

// ValueStore manages execution state storage and retrieval.
type ValueStore interface {
	Set(key string, value any)
	Get(key string) (any, bool)
	SetNested(prefix string, value any)
	All() map[string]any
}

// StepExecutor executes a single flow step.
// The explicit ctx carries step-scoped timeout/cancellation for this invocation.
// The *Execution carries mutable flow state shared across all steps.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, execution *Execution, step Step) (next string, err error)
}

// ParameterStore resolves the node parameters for one input item.
type ParameterStore interface {
	Resolve(ctx context.Context, index int, item Item) (map[string]any, error)
}

// Initializer interface allows plugins to perform startup initialization.
// Plugins implementing this interface will have Initialize called at container startup,
// in registration order. Config and dependencies are already set on the plugin struct.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Shutdowner interface allows plugins to perform graceful shutdown.
// Shutdown is called in reverse registration order.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Task is a callable unit registered in the container.
type Task interface {
	Execute(*Execution, map[string]any) (map[string]any, error)
}
