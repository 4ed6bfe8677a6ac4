package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Container        *Container
	Flows            map[string]Flow
	ResponseHandlers *ResponseHandlerRegistry

	loader        FlowLoader
	executor      *Executor
	newValueStore func() ValueStore
	properties    map[string]any
	l             *slog.Logger
}

func NewApp(container *Container, loader FlowLoader, evaluator ExpressionEvaluator, stepExecutor StepExecutor, newValueStore func() ValueStore, l *slog.Logger) *App {
	if l == nil {
		l = slog.Default()
	}
	return &App{
		Container:        container,
		Flows:            make(map[string]Flow),
		ResponseHandlers: NewResponseHandlerRegistry(),
		loader:           loader,
		executor:         NewExecutor(l, evaluator, stepExecutor),
		newValueStore:    newValueStore,
		l:                l,
	}
}

// SetGlobalProperties sets properties visible to every flow as properties.<name>.
func (a *App) SetGlobalProperties(properties map[string]any) {
	a.properties = properties
}

func (a *App) RegisterFlow(flow Flow) {
	a.Flows[flow.ID] = flow
}

// LoadFlows loads every flow file matching the loader's extensions in dir.
func (a *App) LoadFlows(dir string) error {
	for _, pattern := range a.loader.Extensions() {
		files, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("error reading directory: %w", err)
		}
		for _, file := range files {
			flow, err := a.loader.Load(file)
			if err != nil {
				return fmt.Errorf("flow %s: %w", file, err)
			}
			if flow.ID == "" {
				return fmt.Errorf("flow %s: id is required", file)
			}
			a.RegisterFlow(flow)
		}
	}
	return nil
}

// NewExecution creates an execution for flow with the app's global properties.
func (a *App) NewExecution(ctx context.Context, flow *Flow) (*Execution, error) {
	return NewExecution(ctx, flow, a.Container, a.properties, a.newValueStore())
}

// Run executes a flow once with body stored under request.body.
func (a *App) Run(ctx context.Context, flowID string, body any) (*Execution, error) {
	flow, ok := a.Flows[flowID]
	if !ok {
		return nil, fmt.Errorf("flow %q not found", flowID)
	}

	exec, err := a.NewExecution(ctx, &flow)
	if err != nil {
		return nil, err
	}
	if body != nil {
		exec.Store.SetNested(RequestBodyPrefix, body)
	}

	if err := a.executor.ExecuteSteps(exec); err != nil {
		return exec, err
	}
	return exec, nil
}

// Handler builds the gin engine serving every flow with an http entrypoint.
func (a *App) Handler() *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery())
	for id := range a.Flows {
		flow := a.Flows[id]
		if flow.Entrypoint.Type != "http" {
			continue
		}
		if err := NewHttpHandler(&flow, a, g); err != nil {
			a.l.Error("Skipping flow entrypoint", "flow", flow.ID, "error", err)
		}
	}
	return g
}

// Start initializes plugins, loads flows and serves them until ctx is done or
// the process receives SIGINT/SIGTERM, then shuts everything down.
func (a *App) Start(ctx context.Context, addr string, flowsDir string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Container.Initialize(ctx); err != nil {
		return err
	}

	if err := a.LoadFlows(flowsDir); err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: a.Handler()}
	serveErr := make(chan error, 1)
	go func() {
		a.l.Info("Listening", "addr", addr, "flows", len(a.Flows))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		a.l.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(srv.Shutdown(shutdownCtx), a.Container.Shutdown(shutdownCtx))
}
