// Package plugin is the surface plugin authors import.
//
// A plugin is a struct with exported task methods. Task methods are discovered
// by the container when the plugin is registered:
//
//	func (p *MyPlugin) Name(exec *plugin.Execution, args plugin.Input) (plugin.Output, error)
//	func (p *MyPlugin) Name(exec *plugin.Execution, input NameInput) (NameOutput, error)
//
// Registering MyPlugin as "my" exposes the task "my.name". Typed inputs are
// decoded from step args by json tag and validated with `validate` tags before
// the method runs.
//
// # Configuration
//
// Plugins carry an exported Config struct with declarative tags:
//
//	type Config struct {
//	    Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
//	}
//
// The host fills it through runtime.InitializeConfig (defaults, values from
// the app config, validation) before Initialize is called.
//
// # Nodes
//
// A step that declares parameters runs its task as a node. The task sees the
// node through exec.Node: the input items, a ParameterStore resolving the
// parameters of each item, and the continue-on-fail flag. Results are
// returned as Records tagged with the index of the item that produced them.
//
// # Lifecycle
//
// Initializer and Shutdowner are optional. Initialize runs once at startup in
// registration order; Shutdown runs in reverse order.
package plugin

import "github.com/sflowg/supadata/runtime"

// Execution is the runtime context passed to every task method. It implements
// context.Context, so it can be handed to anything expecting a context.
type Execution = runtime.Execution

// Input is the map form of task arguments.
type Input = map[string]any

// Output is the map form of task results.
type Output = map[string]any

type (
	Item           = runtime.Item
	Record         = runtime.Record
	Node           = runtime.Node
	ParameterStore = runtime.ParameterStore
	Initializer    = runtime.Initializer
	Shutdowner     = runtime.Shutdowner
)
