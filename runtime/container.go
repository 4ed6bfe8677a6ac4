package runtime

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type Container struct {
	Tasks       map[string]Task
	plugins     map[string]any
	order       []string // registration order, drives Initialize/Shutdown
	credentials map[string]map[string]string
}

func NewContainer() *Container {
	return &Container{
		Tasks:       make(map[string]Task),
		plugins:     make(map[string]any),
		credentials: make(map[string]map[string]string),
	}
}

func (c *Container) GetTask(name string) Task {
	task, ok := c.Tasks[name]
	if !ok {
		return nil
	}
	return task
}

func (c *Container) SetTask(name string, task Task) {
	c.Tasks[name] = task
}

// GetPlugin returns a plugin instance by name
func (c *Container) GetPlugin(name string) any {
	return c.plugins[name]
}

// SetCredential stores a named credential (e.g. "supadataApi" -> {"apiKey": "..."}).
func (c *Container) SetCredential(name string, values map[string]string) {
	c.credentials[name] = values
}

// Credential returns a copy of a named credential.
func (c *Container) Credential(name string) (map[string]string, bool) {
	values, ok := c.credentials[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, true
}

// RegisterPlugin registers a plugin instance and auto-discovers its tasks.
//
// Two method shapes are registered as tasks named "<plugin>.<method>" (method
// name with a lowercase first letter):
//
//	func (p *P) Name(exec *Execution, args map[string]any) (map[string]any, error)
//	func (p *P) Name(exec *Execution, input In) (Out, error) // In, Out are structs
func (c *Container) RegisterPlugin(pluginName string, plugin any) error {
	if plugin == nil {
		return fmt.Errorf("plugin cannot be nil")
	}
	if _, exists := c.plugins[pluginName]; exists {
		return fmt.Errorf("plugin %q already registered", pluginName)
	}

	c.plugins[pluginName] = plugin
	c.order = append(c.order, pluginName)

	pluginType := reflect.TypeOf(plugin)
	pluginValue := reflect.ValueOf(plugin)

	for i := 0; i < pluginType.NumMethod(); i++ {
		method := pluginType.Method(i)
		if !method.IsExported() {
			continue
		}

		taskName := fmt.Sprintf("%s.%s", pluginName, toLowerFirst(method.Name))

		switch {
		case isMapTaskSignature(method.Type):
			c.Tasks[taskName] = &pluginTaskWrapper{plugin: pluginValue, method: method}
		case isTypedTaskSignature(method.Type):
			c.Tasks[taskName] = &typedTaskWrapper{
				plugin:     pluginValue,
				method:     method,
				inputType:  method.Type.In(2),
				outputType: method.Type.Out(0),
			}
		}
	}

	return nil
}

// Initialize calls Initialize on plugins in registration order and stops at the first failure.
func (c *Container) Initialize(ctx context.Context) error {
	for _, name := range c.order {
		if initializer, ok := c.plugins[name].(Initializer); ok {
			if err := initializer.Initialize(ctx); err != nil {
				return fmt.Errorf("plugin %s initialization failed: %w", name, err)
			}
		}
	}
	return nil
}

// Shutdown calls Shutdown on plugins in reverse registration order.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.order) - 1; i >= 0; i-- {
		name := c.order[i]
		if shutdowner, ok := c.plugins[name].(Shutdowner); ok {
			if err := shutdowner.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("plugin %s shutdown failed: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

var (
	executionPtrType = reflect.TypeOf((*Execution)(nil))
	mapType          = reflect.TypeOf(map[string]any(nil))
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// isMapTaskSignature: func(exec *Execution, args map[string]any) (map[string]any, error)
func isMapTaskSignature(methodType reflect.Type) bool {
	if methodType.NumIn() != 3 || methodType.NumOut() != 2 {
		return false
	}
	return methodType.In(1) == executionPtrType &&
		methodType.In(2) == mapType &&
		methodType.Out(0) == mapType &&
		methodType.Out(1) == errorType
}

// isTypedTaskSignature: func(exec *Execution, input In) (Out, error) with struct In/Out
func isTypedTaskSignature(methodType reflect.Type) bool {
	if methodType.NumIn() != 3 || methodType.NumOut() != 2 {
		return false
	}
	return methodType.In(1) == executionPtrType &&
		methodType.In(2).Kind() == reflect.Struct &&
		methodType.Out(0).Kind() == reflect.Struct &&
		methodType.Out(1) == errorType
}

func toLowerFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// pluginTaskWrapper wraps a map-based plugin method
type pluginTaskWrapper struct {
	plugin reflect.Value
	method reflect.Method
}

func (w *pluginTaskWrapper) Execute(exec *Execution, args map[string]any) (map[string]any, error) {
	results := w.method.Func.Call([]reflect.Value{
		w.plugin,
		reflect.ValueOf(exec),
		reflect.ValueOf(args),
	})

	resultMap, _ := results[0].Interface().(map[string]any)

	var err error
	if !results[1].IsNil() {
		err = results[1].Interface().(error)
	}

	return resultMap, err
}

// typedTaskWrapper decodes map args into the method's input struct, validates
// it, calls the method and converts the output struct back into a map.
type typedTaskWrapper struct {
	plugin     reflect.Value
	method     reflect.Method
	inputType  reflect.Type
	outputType reflect.Type
}

func (w *typedTaskWrapper) Execute(exec *Execution, args map[string]any) (map[string]any, error) {
	input := reflect.New(w.inputType)
	if len(args) > 0 {
		if err := mapToStruct(args, input.Interface()); err != nil {
			return nil, &FlowError{Type: ErrorTypeUser, Code: "INVALID_INPUT", Message: err.Error(), cause: err}
		}
	}
	if err := ValidateStruct(input.Elem().Interface()); err != nil {
		return nil, &FlowError{Type: ErrorTypeUser, Code: "INVALID_INPUT", Message: err.Error(), cause: err}
	}

	results := w.method.Func.Call([]reflect.Value{
		w.plugin,
		reflect.ValueOf(exec),
		input.Elem(),
	})

	if !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}

	output, err := structToMap(results[0].Interface())
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s output: %w", w.outputType, err)
	}
	return output, nil
}
