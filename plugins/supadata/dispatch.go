package supadata

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sflowg/supadata/runtime"
)

// Dispatcher runs the selected operation once per input item.
type Dispatcher struct {
	client *Client
	poller *Poller
	limits PageLimits
	poll   PollOptions
	l      *slog.Logger
}

func NewDispatcher(client *Client, poller *Poller, limits PageLimits, poll PollOptions, l *slog.Logger) *Dispatcher {
	if l == nil {
		l = slog.Default()
	}
	return &Dispatcher{
		client: client,
		poller: poller,
		limits: limits,
		poll:   poll.withDefaults(),
		l:      l,
	}
}

// Run processes items in order. Every record is tagged with the index of the
// item that produced it. With continueOnFail a failing item yields one error
// record in its place; otherwise the first failure aborts with *ItemError.
// Cancellation always aborts.
func (d *Dispatcher) Run(ctx context.Context, creds Credentials, items []runtime.Item, params runtime.ParameterStore, continueOnFail bool) ([]runtime.Record, error) {
	var records []runtime.Record
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}

		out, err := d.runItem(ctx, creds, i, item, params)
		if err != nil {
			if !continueOnFail || isCanceled(err) {
				return nil, &ItemError{Index: i, Err: err}
			}
			d.l.WarnContext(ctx, "Item failed, continuing", "item", i, "error", err)
			records = append(records, runtime.Record{JSON: errorRecord(err), Item: i})
			continue
		}

		for _, json := range out {
			records = append(records, runtime.Record{JSON: json, Item: i})
		}
	}
	return records, nil
}

func (d *Dispatcher) runItem(ctx context.Context, creds Credentials, index int, item runtime.Item, params runtime.ParameterStore) ([]map[string]any, error) {
	raw, err := params.Resolve(ctx, index, item)
	if err != nil {
		return nil, fmt.Errorf("resolve parameters: %w", err)
	}

	var sel Selector
	if err := decodeParams(raw, &sel); err != nil {
		return nil, err
	}

	op, err := lookup(sel)
	if err != nil {
		return nil, err
	}

	d.l.DebugContext(ctx, "Running operation", "item", index, "resource", sel.Resource, "operation", sel.Operation)
	return op(ctx, d, creds, raw)
}

func lookup(sel Selector) (operation, error) {
	ops, ok := operations[sel.Resource]
	if !ok {
		return nil, &ValidationError{Field: "resource", Message: "must be one of: " + strings.Join(sortedKeys(operations), " ")}
	}
	op, ok := ops[sel.Operation]
	if !ok {
		return nil, &ValidationError{
			Field:   "operation",
			Message: fmt.Sprintf("%q is not an operation of %s (one of: %s)", sel.Operation, sel.Resource, strings.Join(sortedKeys(ops), " ")),
		}
	}
	return op, nil
}

// errorRecord is the output of a failed item in continue-on-fail mode.
func errorRecord(err error) map[string]any {
	fe := runtime.AsFlowError(err, "")
	m := fe.ToMap()
	delete(m, "message")
	m["error"] = err.Error()
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
