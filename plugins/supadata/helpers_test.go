package supadata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

var testCreds = Credentials{APIKey: testAPIKey}

// capturedRequest is what the fake API saw.
type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
	At     time.Time
}

// fakeAPI is a gin-backed stand-in for the Supadata API. Routes are
// registered and captured relative to /v1.
type fakeAPI struct {
	engine *gin.Engine
	srv    *httptest.Server
	clock  *fakeClock

	mu       sync.Mutex
	requests []capturedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{engine: gin.New()}
	api.engine.Use(func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		req := capturedRequest{
			Method: c.Request.Method,
			Path:   strings.TrimPrefix(c.Request.URL.Path, "/v1"),
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			Body:   string(body),
		}
		if api.clock != nil {
			req.At = api.clock.Now()
		}
		api.mu.Lock()
		api.requests = append(api.requests, req)
		api.mu.Unlock()
		c.Next()
	})
	api.srv = httptest.NewServer(api.engine)
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) handle(method, path string, h gin.HandlerFunc) {
	a.engine.Handle(method, "/v1"+path, h)
}

// sequence answers successive calls with the given bodies; the last one repeats.
func (a *fakeAPI) sequence(method, path string, bodies ...any) {
	var mu sync.Mutex
	n := 0
	a.handle(method, path, func(c *gin.Context) {
		mu.Lock()
		body := bodies[min(n, len(bodies)-1)]
		n++
		mu.Unlock()
		c.JSON(http.StatusOK, body)
	})
}

func (a *fakeAPI) captured() []capturedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]capturedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *fakeAPI) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientOptions{
		BaseURL: a.srv.URL + "/v1",
		Timeout: 5 * time.Second,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	return c
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) elapsedSince(start time.Time) time.Duration {
	return c.Now().Sub(start)
}

// newTestPoller returns a poller driven by the API's fake clock.
func newTestPoller(api *fakeAPI, client *Client) *Poller {
	if api.clock == nil {
		api.clock = newFakeClock()
	}
	p := NewPoller(client, discardLogger())
	p.now = api.clock.Now
	p.sleep = api.clock.Sleep
	return p
}

func newTestDispatcher(t *testing.T, api *fakeAPI, limits PageLimits) *Dispatcher {
	t.Helper()
	client := api.client(t)
	return NewDispatcher(client, newTestPoller(api, client), limits,
		PollOptions{Interval: time.Second, MaxWait: 10 * time.Second}, discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
