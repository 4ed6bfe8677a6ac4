package runtime

import (
	"fmt"
	"log/slog"
)

// Executor orchestrates flow step execution.
// It handles the step loop, condition evaluation and next-step jumps,
// delegating actual step execution to a StepExecutor.
type Executor struct {
	l            *slog.Logger
	evaluator    ExpressionEvaluator
	stepExecutor StepExecutor
}

func NewExecutor(l *slog.Logger, evaluator ExpressionEvaluator, stepExecutor StepExecutor) *Executor {
	return &Executor{
		l:            l,
		evaluator:    evaluator,
		stepExecutor: stepExecutor,
	}
}

// ExecuteSteps runs the flow's steps in order. A failing step aborts the flow
// with a *FlowError naming the step.
func (e *Executor) ExecuteSteps(execution *Execution) error {
	nextStep := ""

	for _, s := range execution.Flow.Steps {
		if err := execution.Err(); err != nil {
			return AsFlowError(err, s.ID)
		}

		if nextStep != "" {
			if s.ID != nextStep {
				e.l.DebugContext(execution, "Skipping step", "step", s.ID)
				continue
			}
			nextStep = ""
			e.l.DebugContext(execution, "Resuming flow", "step", s.ID)
		}

		ok, err := e.evaluateCondition(execution, s)
		if err != nil {
			return AsFlowError(err, s.ID)
		}
		if !ok {
			e.l.InfoContext(execution, "Condition not met, skipping step", "step", s.ID, "condition", s.Condition)
			continue
		}

		next, err := e.stepExecutor.ExecuteStep(execution, execution, s)
		if err != nil {
			return AsFlowError(err, s.ID)
		}

		if execution.ResponseDescriptor != nil {
			e.l.InfoContext(execution, "Response produced", "step", s.ID)
			break
		}

		if next != "" {
			nextStep = next
		}
	}

	return nil
}

func (e *Executor) evaluateCondition(execution *Execution, step Step) (bool, error) {
	if step.Condition == "" {
		return true, nil
	}

	result, err := e.evaluator.Eval(step.Condition, execution.Values())
	if err != nil {
		e.l.ErrorContext(execution, "Error evaluating condition",
			"step", step.ID,
			"condition", step.Condition,
			"error", err)
		return false, fmt.Errorf("error evaluating condition %s: %w", step.Condition, err)
	}

	resultBool, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %s evaluated to %T, expected boolean", step.Condition, result)
	}
	return resultBool, nil
}
