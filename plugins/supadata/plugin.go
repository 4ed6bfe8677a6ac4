// Package supadata exposes the Supadata content extraction API as workflow
// tasks: YouTube metadata and transcripts, universal transcripts, web
// scraping and AI structured extraction.
package supadata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sflowg/supadata/runtime"
	"github.com/sflowg/supadata/runtime/plugin"
)

// Config holds the plugin configuration with declarative tags.
// APIKey is a fallback for executions whose container holds no credential
// named Credential.
type Config struct {
	APIKey     string        `yaml:"api_key"`
	Credential string        `yaml:"credential" default:"supadataApi" validate:"required"`
	BaseURL    string        `yaml:"base_url" default:"https://api.supadata.ai/v1" validate:"required,url_format"`
	Timeout    time.Duration `yaml:"timeout" default:"60s" validate:"gte=1s"`
	UserAgent  string        `yaml:"user_agent" default:"sflowg-supadata"`
	Debug      bool          `yaml:"debug" default:"false"`

	MaxPages int `yaml:"max_pages" default:"100" validate:"gte=0"`
	MaxItems int `yaml:"max_items" default:"0" validate:"gte=0"`

	PollInterval time.Duration `yaml:"poll_interval" default:"5s" validate:"gte=100ms"`
	MaxWait      time.Duration `yaml:"max_wait" default:"300s" validate:"gtefield=PollInterval"`
}

// RunInput configures a run outside of a node step: Parameters are used for a
// single item.
type RunInput struct {
	Parameters     map[string]any `json:"parameters"`
	ContinueOnFail bool           `json:"continueOnFail"`
}

type RunOutput struct {
	Records []plugin.Record `json:"records"`
	Count   int             `json:"count"`
	Errors  int             `json:"errors"`
}

type HealthInput struct{}

type HealthOutput struct {
	Healthy bool           `json:"healthy"`
	Body    map[string]any `json:"body,omitempty"`
}

// SupadataPlugin implements the Supadata tasks as a plugin.
type SupadataPlugin struct {
	Config Config       // Exported so the host can set it during initialization
	Logger *slog.Logger // Optional, defaults to slog.Default()

	client     *Client
	poller     *Poller
	dispatcher *Dispatcher
}

// Initialize implements the plugin.Initializer interface.
// Config is already validated by the host before this is called.
func (p *SupadataPlugin) Initialize(ctx context.Context) error {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	l := p.Logger.With("plugin", "supadata")

	client, err := NewClient(ClientOptions{
		BaseURL:   p.Config.BaseURL,
		UserAgent: p.Config.UserAgent,
		Timeout:   p.Config.Timeout,
		Debug:     p.Config.Debug,
		Logger:    l,
	})
	if err != nil {
		return fmt.Errorf("supadata client: %w", err)
	}

	p.client = client
	p.poller = NewPoller(client, l)
	p.dispatcher = NewDispatcher(client, p.poller,
		PageLimits{MaxPages: p.Config.MaxPages, MaxItems: p.Config.MaxItems},
		PollOptions{Interval: p.Config.PollInterval, MaxWait: p.Config.MaxWait},
		l)

	l.InfoContext(ctx, "Supadata plugin initialized", "base_url", p.Config.BaseURL)
	return nil
}

// Run executes the selected operation for every item of the current node.
// Outside a node step it runs once with input.Parameters.
func (p *SupadataPlugin) Run(exec *plugin.Execution, input RunInput) (RunOutput, error) {
	if p.dispatcher == nil {
		return RunOutput{}, fmt.Errorf("supadata plugin is not initialized")
	}

	var (
		items          []plugin.Item
		params         plugin.ParameterStore
		continueOnFail bool
	)
	if exec.Node != nil {
		items = exec.Node.Items
		params = exec.Node.Parameters
		continueOnFail = exec.Node.ContinueOnFail
	} else {
		items = []plugin.Item{{JSON: map[string]any{}}}
		params = runtime.StaticParameters(input.Parameters)
		continueOnFail = input.ContinueOnFail
	}

	records, err := p.dispatcher.Run(exec, p.credentials(exec), items, params, continueOnFail)
	if err != nil {
		return RunOutput{}, err
	}

	out := RunOutput{Records: records, Count: len(records)}
	if out.Records == nil {
		out.Records = []plugin.Record{}
	}
	for _, r := range records {
		if _, failed := r.JSON["error"]; failed {
			out.Errors++
		}
	}
	return out, nil
}

// Health checks the configured credential against the API.
func (p *SupadataPlugin) Health(exec *plugin.Execution, _ HealthInput) (HealthOutput, error) {
	if p.client == nil {
		return HealthOutput{}, fmt.Errorf("supadata plugin is not initialized")
	}
	resp, err := p.client.Health(exec, p.credentials(exec))
	if err != nil {
		return HealthOutput{}, err
	}
	return HealthOutput{Healthy: true, Body: recordJSON(resp)}, nil
}

// Shutdown implements the plugin.Shutdowner interface.
func (p *SupadataPlugin) Shutdown(ctx context.Context) error {
	p.dispatcher = nil
	p.poller = nil
	p.client = nil
	return nil
}

// credentials reads the API key from the execution's credential store,
// falling back to Config.APIKey.
func (p *SupadataPlugin) credentials(exec *plugin.Execution) Credentials {
	if exec != nil {
		if values, ok := exec.Credential(p.Config.Credential); ok && values["apiKey"] != "" {
			return Credentials{APIKey: values["apiKey"]}
		}
	}
	return Credentials{APIKey: p.Config.APIKey}
}
