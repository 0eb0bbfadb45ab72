package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator is returned when selector evaluation is requested but no
// engine could be resolved.
var ErrNoEvaluator = errors.New("store: evaluator not configured")

// Select executes a selector expression against the current snapshot using
// the configured evaluator. When none was configured, an expr-lang evaluator
// is built on first use, honoring any program cache and function registry
// supplied at construction.
//
// Snapshot keys bind as top-level identifiers; "loading", "now", "args" and
// "metadata" are always bound.
func (s *Store) Select(expression string) (any, error) {
	return s.SelectWith(SelectContext{}, expression)
}

// SelectWith executes expression using ctx, falling back to the current
// snapshot and loading flags when ctx leaves them nil.
func (s *Store) SelectWith(ctx SelectContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = s.Snapshot()
	}
	if ctx.Loading == nil {
		ctx.Loading = s.LoadingSnapshot()
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expression)
	duration := time.Since(start)
	evalErr = wrapEvaluationError("", expression, evalErr)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expression,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// CompileSelector compiles expression once for repeated evaluation against
// changing snapshots.
func (s *Store) CompileSelector(expression string, opts ...CompileOption) (CompiledSelector, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.Compile(expression, opts...)
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	if evaluator := s.evaluator(); evaluator != nil {
		return evaluator, nil
	}
	s.defaultEvalOnce.Do(func() {
		var exprOpts []ExprEvaluatorOption
		if cache := s.programCache(); cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cache))
		}
		if registry := s.functionRegistry(); registry != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
		}
		s.defaultEval = NewExprEvaluator(exprOpts...)
	})
	if s.defaultEval == nil {
		return nil, ErrNoEvaluator
	}
	return s.defaultEval, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*store.exprEvaluator":
		return "expr"
	case "*store.celEvaluator":
		return "cel"
	case "*store.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
