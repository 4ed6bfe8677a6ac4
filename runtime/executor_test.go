package runtime

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// boolEvaluator resolves an expression by looking it up in the values map.
type boolEvaluator struct{}

func (boolEvaluator) Eval(expression string, values map[string]any) (any, error) {
	v, ok := values[expression]
	if !ok {
		return nil, errors.New("unknown expression " + expression)
	}
	return v, nil
}

type recordingStepExecutor struct {
	ran     []string
	next    map[string]string
	fail    map[string]error
	respond string
}

func (r *recordingStepExecutor) ExecuteStep(ctx context.Context, exec *Execution, step Step) (string, error) {
	r.ran = append(r.ran, step.ID)
	if err := r.fail[step.ID]; err != nil {
		return "", err
	}
	if step.ID == r.respond {
		exec.ResponseDescriptor = &ResponseDescriptor{HandlerName: "http.json"}
	}
	return r.next[step.ID], nil
}

func runSteps(t *testing.T, ctx context.Context, steps []Step, se *recordingStepExecutor, values map[string]any) error {
	t.Helper()
	store := mapStore{}
	for k, v := range values {
		store[k] = v
	}
	exec, err := NewExecution(ctx, &Flow{ID: "f", Steps: steps}, NewContainer(), nil, store)
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	return NewExecutor(slog.New(slog.DiscardHandler), boolEvaluator{}, se).ExecuteSteps(exec)
}

func assertRan(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected steps %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestExecuteSteps_Sequential(t *testing.T) {
	se := &recordingStepExecutor{}
	err := runSteps(t, context.Background(), []Step{{ID: "a"}, {ID: "b"}, {ID: "c"}}, se, nil)
	if err != nil {
		t.Fatalf("ExecuteSteps failed: %v", err)
	}
	assertRan(t, se.ran, "a", "b", "c")
}

func TestExecuteSteps_Conditions(t *testing.T) {
	se := &recordingStepExecutor{}
	steps := []Step{
		{ID: "a", Condition: "yes"},
		{ID: "b", Condition: "no"},
		{ID: "c"},
	}
	err := runSteps(t, context.Background(), steps, se, map[string]any{"yes": true, "no": false})
	if err != nil {
		t.Fatalf("ExecuteSteps failed: %v", err)
	}
	assertRan(t, se.ran, "a", "c")
}

func TestExecuteSteps_NonBooleanCondition(t *testing.T) {
	se := &recordingStepExecutor{}
	err := runSteps(t, context.Background(), []Step{{ID: "a", Condition: "str"}}, se, map[string]any{"str": "x"})

	var fe *FlowError
	if !errors.As(err, &fe) || fe.Step != "a" {
		t.Fatalf("Expected FlowError for step a, got %v", err)
	}
	assertRan(t, se.ran)
}

func TestExecuteSteps_NextJump(t *testing.T) {
	se := &recordingStepExecutor{next: map[string]string{"route": "d"}}
	steps := []Step{{ID: "route"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	if err := runSteps(t, context.Background(), steps, se, nil); err != nil {
		t.Fatalf("ExecuteSteps failed: %v", err)
	}
	assertRan(t, se.ran, "route", "d", "e")
}

func TestExecuteSteps_StopsOnResponse(t *testing.T) {
	se := &recordingStepExecutor{respond: "b"}
	if err := runSteps(t, context.Background(), []Step{{ID: "a"}, {ID: "b"}, {ID: "c"}}, se, nil); err != nil {
		t.Fatalf("ExecuteSteps failed: %v", err)
	}
	assertRan(t, se.ran, "a", "b")
}

func TestExecuteSteps_AbortsOnError(t *testing.T) {
	se := &recordingStepExecutor{fail: map[string]error{"b": errors.New("boom")}}
	err := runSteps(t, context.Background(), []Step{{ID: "a"}, {ID: "b"}, {ID: "c"}}, se, nil)

	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FlowError, got %T", err)
	}
	if fe.Step != "b" || fe.Code != ErrorCodeRuntimeError {
		t.Errorf("Unexpected error: %+v", fe)
	}
	assertRan(t, se.ran, "a", "b")
}

func TestExecuteSteps_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	se := &recordingStepExecutor{}
	err := runSteps(t, ctx, []Step{{ID: "a"}}, se, nil)

	var fe *FlowError
	if !errors.As(err, &fe) || fe.Code != ErrorCodeContextCancelled {
		t.Fatalf("Expected CONTEXT_CANCELLED, got %v", err)
	}
	assertRan(t, se.ran)
}
