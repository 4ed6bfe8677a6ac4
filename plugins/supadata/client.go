package supadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/go-resty/resty/v2"
	"github.com/sflowg/supadata/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL   = "https://api.supadata.ai/v1"
	DefaultUserAgent = "sflowg-supadata"

	apiKeyHeader        = "x-api-key"
	instrumentationName = "github.com/sflowg/supadata/plugins/supadata"
)

// Credentials authenticate a single call. They are passed explicitly so the
// client holds no per-user state.
type Credentials struct {
	APIKey string
}

// Request is one API call. Path is relative to the base URL. Route, when set,
// names the call in spans and metrics instead of Path (e.g. "/extract/{jobId}").
type Request struct {
	Method string
	Path   string
	Route  string
	Query  map[string]any
	Body   map[string]any
}

func (r Request) route() string {
	if r.Route != "" {
		return r.Route
	}
	return r.Path
}

type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Debug     bool
	Logger    *slog.Logger

	// Nil providers fall back to the global OpenTelemetry providers.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client performs authenticated calls against the Supadata REST API.
type Client struct {
	http     *resty.Client
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
	l        *slog.Logger
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}

	meter := opts.MeterProvider.Meter(instrumentationName)
	requests, err := meter.Int64Counter("supadata.requests",
		metric.WithDescription("Supadata API requests by route and status"))
	if err != nil {
		return nil, fmt.Errorf("requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram("supadata.request.duration",
		metric.WithDescription("Supadata API request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{l: opts.Logger}).
		SetDebug(opts.Debug)

	return &Client{
		http:     httpClient,
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
		l:        opts.Logger,
	}, nil
}

// Do sends req and returns the decoded JSON answer. Non-2xx answers and
// transport failures become *APIError; a missing API key is a
// *ValidationError raised before any I/O.
func (c *Client) Do(ctx context.Context, creds Credentials, req Request) (*gabs.Container, error) {
	if creds.APIKey == "" {
		return nil, &ValidationError{Field: "apiKey", Message: "no API key configured"}
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "supadata "+req.Method+" "+req.route(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("supadata.route", req.route()),
		))
	defer span.End()

	r := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, creds.APIKey).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(runtime.ToStringValueMap(req.Query))
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	elapsed := time.Since(start)

	status := 0
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("supadata.route", req.route()),
		attribute.Int("http.response.status_code", status),
	)
	c.requests.Add(ctx, 1, attrs)
	c.duration.Record(ctx, elapsed.Seconds(), attrs)
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	c.l.DebugContext(ctx, "Supadata request",
		"method", req.Method,
		"path", req.Path,
		"status", status,
		"duration", elapsed)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fail(span, ctxErr)
			return nil, fmt.Errorf("supadata %s %s: %w", req.Method, req.Path, ctxErr)
		}
		apiErr := &APIError{Method: req.Method, Path: req.Path, Message: err.Error(), cause: err}
		fail(span, apiErr)
		return nil, apiErr
	}

	if resp.IsError() || status < 200 || status >= 300 {
		apiErr := errorFromBody(req, status, resp.Body())
		fail(span, apiErr)
		return nil, apiErr
	}

	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return gabs.New(), nil
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		apiErr := &APIError{Method: req.Method, Path: req.Path, StatusCode: status, Message: "invalid JSON response", cause: err}
		fail(span, apiErr)
		return nil, apiErr
	}
	return parsed, nil
}

// Health checks the API key against the health endpoint.
func (c *Client) Health(ctx context.Context, creds Credentials) (*gabs.Container, error) {
	return c.Do(ctx, creds, Request{Method: http.MethodGet, Path: "/health"})
}

// errorFromBody builds an APIError from the upstream error document:
// {"error": "<code>", "message": "...", "details": "..."}. The error field may
// also be an object carrying its own message.
func errorFromBody(req Request, status int, body []byte) *APIError {
	apiErr := &APIError{Method: req.Method, Path: req.Path, StatusCode: status}

	if doc, err := gabs.ParseJSON(body); err == nil {
		switch e := doc.S("error").Data().(type) {
		case string:
			apiErr.Code = e
		case map[string]any:
			apiErr.Code, _ = e["code"].(string)
			apiErr.Message, _ = e["message"].(string)
		}
		if msg, ok := doc.S("message").Data().(string); ok && msg != "" {
			apiErr.Message = msg
		}
		if details, ok := doc.S("details").Data().(string); ok {
			apiErr.Details = details
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// restyLogger routes resty's debug and warning output through slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

var _ resty.Logger = restyLogger{}

// isCanceled reports whether err came from the caller giving up rather than the API.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
