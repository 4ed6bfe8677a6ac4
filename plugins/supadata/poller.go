package supadata

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxWait      = 300 * time.Second

	defaultJobFailure = "job failed"
)

// Job statuses. Anything else the API reports ("queued", "active", ...) is pending.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
)

type PollOptions struct {
	Interval time.Duration
	MaxWait  time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.MaxWait <= 0 {
		o.MaxWait = DefaultMaxWait
	}
	return o
}

// Poller awaits asynchronous jobs by reading their status at a fixed interval.
type Poller struct {
	client *Client
	l      *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(client *Client, l *slog.Logger) *Poller {
	if l == nil {
		l = slog.Default()
	}
	return &Poller{
		client: client,
		l:      l,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Await polls GET {path}/{jobID} until the job completes, fails or the wait
// budget runs out. The first status request is sent immediately; later ones
// are spaced by the interval, shortened so no wait outlasts the budget. A
// status request still in flight when the budget ends is abandoned.
func (p *Poller) Await(ctx context.Context, creds Credentials, path string, jobID string, opts PollOptions) (*gabs.Container, error) {
	opts = opts.withDefaults()
	req := Request{
		Method: http.MethodGet,
		Path:   strings.TrimRight(path, "/") + "/" + url.PathEscape(jobID),
		Route:  strings.TrimRight(path, "/") + "/{jobId}",
	}

	start := p.now()
	attempts := 0
	for {
		remaining := opts.MaxWait - p.now().Sub(start)
		if remaining <= 0 {
			return nil, &JobTimeoutError{JobID: jobID, MaxWait: opts.MaxWait, Attempts: attempts}
		}

		resp, err := p.status(ctx, creds, req, remaining)
		attempts++
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, &JobTimeoutError{JobID: jobID, MaxWait: opts.MaxWait, Attempts: attempts}
			}
			return nil, err
		}

		status, _ := resp.S("status").Data().(string)
		p.l.DebugContext(ctx, "Polled job", "path", req.Route, "job", jobID, "status", status, "attempt", attempts)

		switch status {
		case JobCompleted:
			return resp, nil
		case JobFailed:
			return nil, &JobFailedError{JobID: jobID, Message: jobFailure(resp)}
		}

		remaining = opts.MaxWait - p.now().Sub(start)
		if err := p.sleep(ctx, min(opts.Interval, remaining)); err != nil {
			return nil, err
		}
	}
}

// status sends one status request bounded by what is left of the wait budget.
func (p *Poller) status(ctx context.Context, creds Credentials, req Request, remaining time.Duration) (*gabs.Container, error) {
	reqCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()
	return p.client.Do(reqCtx, creds, req)
}

// jobFailure extracts the failure message from error.message or a plain error string.
func jobFailure(resp *gabs.Container) string {
	if msg, ok := resp.Path("error.message").Data().(string); ok && msg != "" {
		return msg
	}
	if msg, ok := resp.S("error").Data().(string); ok && msg != "" {
		return msg
	}
	return defaultJobFailure
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
