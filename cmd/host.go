package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sflowg/supadata/internal/config"
	"github.com/sflowg/supadata/plugins/supadata"
	"github.com/sflowg/supadata/runtime"
	"github.com/sflowg/supadata/runtime/engine/yaml"
	"github.com/sflowg/supadata/runtime/telemetry"
)

// host is a fully wired runtime: config, plugins, flows engine and telemetry.
type host struct {
	cfg *config.Config
	app *runtime.App
	l   *slog.Logger

	shutdownTelemetry telemetry.ShutdownFunc
}

// newHost loads .env and sflowg.yaml from dir and wires the app. Logs go to
// logOut so commands that print results keep stdout clean.
func newHost(ctx context.Context, dir string, logOut io.Writer) (*host, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	l, shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, telemetry.NewLogger(logOut, cfg.Log))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)

	container := runtime.NewContainer()
	for name, values := range cfg.Credentials {
		container.SetCredential(name, values)
	}

	plugin := &supadata.SupadataPlugin{Logger: l}
	if err := runtime.InitializeConfig(&plugin.Config, cfg.Plugin("supadata")); err != nil {
		return nil, errors.Join(fmt.Errorf("plugin supadata: %w", err), shutdown(ctx))
	}
	if err := container.RegisterPlugin("supadata", plugin); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	evaluator := yaml.NewExpressionEvaluator()
	app := runtime.NewApp(container, yaml.NewFlowLoader(), evaluator, yaml.NewStepExecutor(evaluator, l),
		func() runtime.ValueStore { return yaml.NewValueStore() }, l)
	app.SetGlobalProperties(cfg.Properties)

	return &host{cfg: cfg, app: app, l: l, shutdownTelemetry: shutdown}, nil
}

// start initializes plugins and loads flows for one-shot commands.
func (h *host) start(ctx context.Context) error {
	if err := h.app.Container.Initialize(ctx); err != nil {
		return err
	}
	flows, err := h.cfg.FlowsDir()
	if err != nil {
		return err
	}
	return h.app.LoadFlows(flows)
}

func (h *host) close(ctx context.Context) error {
	return errors.Join(h.app.Container.Shutdown(ctx), h.shutdownTelemetry(ctx))
}
