package yaml

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sflowg/supadata/runtime"
)

// StepExecutor dispatches step execution based on the step's Type field.
// Handles "assign", "switch" and "return" as built-in types, delegates all
// others to the container's task registry.
type StepExecutor struct {
	evaluator runtime.ExpressionEvaluator
	l         *slog.Logger
}

func NewStepExecutor(evaluator runtime.ExpressionEvaluator, l *slog.Logger) *StepExecutor {
	return &StepExecutor{
		evaluator: evaluator,
		l:         l,
	}
}

func (e *StepExecutor) ExecuteStep(ctx context.Context, execution *runtime.Execution, step runtime.Step) (string, error) {
	switch step.Type {
	case "assign":
		return "", e.handleAssign(ctx, execution, step)
	case "switch":
		return e.handleSwitch(ctx, execution, step)
	case "return":
		return "", e.handleReturn(execution)
	default:
		return "", e.handleTask(ctx, execution, step)
	}
}

func (e *StepExecutor) handleAssign(ctx context.Context, execution *runtime.Execution, step runtime.Step) error {
	for k, v := range step.Args {
		evaluated, err := e.evaluateValue(ctx, execution, step.ID, k, v)
		if err != nil {
			return err
		}
		// Stored with the step ID prefix so it can be accessed as {stepID}.{key}
		execution.Store.SetNested(fmt.Sprintf("%s.%s", step.ID, k), evaluated)
	}
	return nil
}

// evaluateValue recursively evaluates expressions in nested structures.
// Strings are always expressions; use '"literal"' for string literals.
func (e *StepExecutor) evaluateValue(ctx context.Context, execution *runtime.Execution, stepID string, path string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		result, err := e.evaluator.Eval(v, execution.Values())
		if err != nil {
			e.l.ErrorContext(ctx, "Error evaluating expression",
				"step", stepID,
				"path", path,
				"expression", v,
				"error", err)
			return nil, fmt.Errorf("error evaluating expression '%s': %w", v, err)
		}
		return result, nil
	case map[string]any:
		evaluated := make(map[string]any, len(v))
		for key, val := range v {
			evaluatedVal, err := e.evaluateValue(ctx, execution, stepID, path+"."+key, val)
			if err != nil {
				return nil, err
			}
			evaluated[key] = evaluatedVal
		}
		return evaluated, nil
	case []any:
		evaluated := make([]any, len(v))
		for i, val := range v {
			evaluatedVal, err := e.evaluateValue(ctx, execution, stepID, fmt.Sprintf("%s[%d]", path, i), val)
			if err != nil {
				return nil, err
			}
			evaluated[i] = evaluatedVal
		}
		return evaluated, nil
	default:
		return value, nil
	}
}

func (e *StepExecutor) handleSwitch(ctx context.Context, execution *runtime.Execution, step runtime.Step) (string, error) {
	// Branches are evaluated in the order their target steps appear in the flow,
	// so catch-all branches defined last are evaluated last.
	for _, n := range e.orderSwitchBranches(execution, step) {
		condition, ok := step.Args[n].(string)
		if !ok {
			return "", fmt.Errorf("switch condition must be a string expression, got %T", step.Args[n])
		}

		result, err := e.evaluator.Eval(condition, execution.Values())
		if err != nil {
			return "", fmt.Errorf("error evaluating switch condition %s: %w", condition, err)
		}

		resultBool, ok := result.(bool)
		if !ok {
			return "", fmt.Errorf("condition %s evaluated to %T, expected boolean", condition, result)
		}

		if resultBool {
			e.l.DebugContext(ctx, "Switch resolved", "step", step.ID, "branch", n)
			return n, nil
		}
	}
	return "", nil
}

// orderSwitchBranches returns switch branch names ordered by the position of
// their target steps in the flow. Branches whose names don't match any step ID
// are appended at the end in alphabetical order.
func (e *StepExecutor) orderSwitchBranches(execution *runtime.Execution, step runtime.Step) []string {
	stepOrder := make(map[string]int, len(execution.Flow.Steps))
	for i, s := range execution.Flow.Steps {
		stepOrder[s.ID] = i
	}

	matched := make([]string, 0, len(step.Args))
	unmatched := make([]string, 0)
	for name := range step.Args {
		if _, ok := stepOrder[name]; ok {
			matched = append(matched, name)
		} else {
			unmatched = append(unmatched, name)
		}
	}

	sort.Strings(unmatched)
	sort.Slice(matched, func(i, j int) bool {
		return stepOrder[matched[i]] < stepOrder[matched[j]]
	})

	return append(matched, unmatched...)
}

func (e *StepExecutor) handleTask(ctx context.Context, execution *runtime.Execution, step runtime.Step) error {
	task := execution.Container.GetTask(step.Type)
	if task == nil {
		return &runtime.FlowError{
			Type:    runtime.ErrorTypePermanent,
			Code:    runtime.ErrorCodeTaskNotFound,
			Message: fmt.Sprintf("task type: %s not found", step.Type),
		}
	}

	args := make(map[string]any, len(step.Args))
	for k, v := range step.Args {
		evaluated, err := e.evaluateValue(ctx, execution, step.ID, k, v)
		if err != nil {
			return fmt.Errorf("failed to evaluate args for task %s: %w", step.Type, err)
		}
		args[k] = evaluated
	}

	var (
		output map[string]any
		err    error
	)
	if step.IsNode() {
		node, nodeErr := e.buildNode(ctx, execution, step)
		if nodeErr != nil {
			return nodeErr
		}
		e.l.InfoContext(ctx, "Running node", "step", step.ID, "task", step.Type, "items", len(node.Items))
		execution.WithNode(node, func() {
			output, err = task.Execute(execution, args)
		})
	} else {
		output, err = task.Execute(execution, args)
	}

	if err != nil {
		e.l.ErrorContext(ctx, "Task execution failed",
			"step", step.ID,
			"task", step.Type,
			"error", err.Error())
		return err
	}

	// SetNested keeps nested access like step.result.items.0.json.title working
	for k, v := range output {
		execution.Store.SetNested(fmt.Sprintf("%s.result.%s", step.ID, k), v)
	}
	e.l.InfoContext(ctx, "Executed task", "step", step.ID, "task", step.Type)
	return nil
}

func (e *StepExecutor) buildNode(ctx context.Context, execution *runtime.Execution, step runtime.Step) (*runtime.Node, error) {
	var raw any
	if step.Items != "" {
		v, err := e.evaluateValue(ctx, execution, step.ID, "items", step.Items)
		if err != nil {
			return nil, err
		}
		raw = v
	}

	items, err := runtime.NewItems(raw)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", step.ID, err)
	}

	return &runtime.Node{
		StepID:         step.ID,
		Items:          items,
		Parameters:     NewExpressionParameters(e.evaluator, execution.Values(), step.Parameters),
		ContinueOnFail: step.ContinueOnFail,
	}, nil
}

func (e *StepExecutor) handleReturn(execution *runtime.Execution) error {
	ret := execution.Flow.Return
	args := make(map[string]any, len(ret.Args))
	for key, value := range ret.Args {
		evaluated, err := e.evaluateReturnArg(value, execution.Values())
		if err != nil {
			return fmt.Errorf("failed to evaluate return arg '%s': %w", key, err)
		}
		args[key] = evaluated
	}
	execution.ResponseDescriptor = &runtime.ResponseDescriptor{
		HandlerName: ret.Type,
		Args:        args,
	}
	return nil
}

// evaluateReturnArg evaluates strings as expressions, falling back to the
// literal string when evaluation fails, so plain text works in return args.
func (e *StepExecutor) evaluateReturnArg(value any, values map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		evaluated, err := e.evaluator.Eval(v, values)
		if err != nil {
			return v, nil
		}
		return evaluated, nil
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			evaluated, err := e.evaluateReturnArg(val, values)
			if err != nil {
				return nil, err
			}
			result[k] = evaluated
		}
		return result, nil
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			evaluated, err := e.evaluateReturnArg(val, values)
			if err != nil {
				return nil, err
			}
			result[i] = evaluated
		}
		return result, nil
	default:
		return value, nil
	}
}
