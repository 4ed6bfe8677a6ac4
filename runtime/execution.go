package runtime

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ context.Context = &Execution{}

// ResponseDescriptor captures the response produced by a return step.
// The HTTP handler dispatches it to the matching ResponseHandler.
type ResponseDescriptor struct {
	HandlerName string         // e.g. "http.json"
	Args        map[string]any // e.g. {status: 404, body: {...}}
}

type Execution struct {
	ID                 string
	Store              ValueStore
	Flow               *Flow
	Container          *Container
	ResponseDescriptor *ResponseDescriptor
	// Node is set while a node step is running and nil otherwise.
	Node *Node
	ctx  context.Context
}

// context.Context implementation delegates to the embedded ctx so that real
// timeouts and cancellations propagate through slog and plugin calls.

func (e *Execution) Deadline() (deadline time.Time, ok bool) {
	return e.ctx.Deadline()
}

func (e *Execution) Done() <-chan struct{} {
	return e.ctx.Done()
}

func (e *Execution) Err() error {
	return e.ctx.Err()
}

func (e *Execution) Value(key any) any {
	k, ok := key.(string)
	if !ok || e.Store == nil {
		return e.ctx.Value(key)
	}

	v, _ := e.Store.Get(k)
	return v
}

// WithScopedContext temporarily swaps the execution context while fn runs.
// Execution is single-threaded, so temporary ctx mutation is safe here.
func (e *Execution) WithScopedContext(ctx context.Context, fn func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := e.ctx
	e.ctx = ctx
	defer func() {
		e.ctx = prev
	}()
	fn()
}

// WithNode runs fn with node set as the current node invocation.
func (e *Execution) WithNode(node *Node, fn func()) {
	prev := e.Node
	e.Node = node
	defer func() {
		e.Node = prev
	}()
	fn()
}

func (e *Execution) AddValue(k string, v any) {
	e.Store.Set(k, v)
}

// Values returns the full context map for expression evaluation.
func (e *Execution) Values() map[string]any {
	return e.Store.All()
}

// Credential returns a named credential from the container's credential store.
func (e *Execution) Credential(name string) (map[string]string, bool) {
	if e.Container == nil {
		return nil, false
	}
	return e.Container.Credential(name)
}

func NewExecution(ctx context.Context, flow *Flow, container *Container, globalProperties map[string]any, store ValueStore) (*Execution, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	exec := &Execution{
		ID:        uuid.New().String(),
		Store:     store,
		Flow:      flow,
		Container: container,
		ctx:       ctx,
	}

	// Global properties first, then flow properties (flow overrides)
	for _, props := range []map[string]any{globalProperties, flow.Properties} {
		for k, v := range props {
			resolved, err := ResolveEnvVar(v)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", k, err)
			}
			exec.AddValue("properties."+k, resolved)
		}
	}

	return exec, nil
}

// envVarPattern matches ${VAR} and ${VAR:default} syntax
var envVarPattern = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)(:[^}]*)?\}$`)

// ResolveEnvVar resolves ${VAR} and ${VAR:default} string values from the
// environment. Non-matching values are returned unchanged.
func ResolveEnvVar(value any) (any, error) {
	strValue, ok := value.(string)
	if !ok {
		return value, nil
	}

	matches := envVarPattern.FindStringSubmatch(strValue)
	if matches == nil {
		return value, nil
	}

	varName := matches[1]
	defaultPart := matches[2]

	if envValue, exists := os.LookupEnv(varName); exists {
		return envValue, nil
	}

	if defaultPart != "" {
		return strings.TrimPrefix(defaultPart, ":"), nil
	}

	return nil, fmt.Errorf("required environment variable not set: %s", varName)
}
