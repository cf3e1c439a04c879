package xlbind

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// PathEvaluator evaluates computed binding paths against a domain record.
type PathEvaluator interface {
	Evaluate(expression string, record any) (any, error)
}

// exprEvaluator implements PathEvaluator using expr-lang/expr.
type exprEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

// NewPathEvaluator creates a path evaluator backed by expr-lang/expr.
func NewPathEvaluator() PathEvaluator {
	return &exprEvaluator{}
}

func (e *exprEvaluator) Evaluate(expression string, record any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	env := exprEnv(record)
	program, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

// compile builds programs without a typed environment, so one cached
// program serves records of any shape.
func (e *exprEvaluator) compile(expression string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, exprOptions()...)
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

// CheckExpression compiles an expression without a record, reporting syntax errors.
func CheckExpression(expression string) error {
	if _, err := expr.Compile(expression, exprOptions()...); err != nil {
		return fmt.Errorf("compile expression %q: %w", expression, err)
	}
	return nil
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.Function("hyperlink", func(params ...any) (any, error) {
			url, display := "", ""
			if len(params) > 0 {
				url = fmt.Sprint(params[0])
			}
			if len(params) > 1 {
				display = fmt.Sprint(params[1])
			}
			return Hyperlink(url, display), nil
		}),
	}
}

// exprEnv returns the record as an expr environment; a nil record becomes empty.
func exprEnv(record any) any {
	if record == nil {
		return map[string]any{}
	}
	return record
}
