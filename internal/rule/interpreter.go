// Package rule evaluates tariff activation rules in a sandboxed JavaScript
// interpreter. A rule decides whether, and at what value, a conditional
// tariff applies to one usage record.
package rule

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ResultKind classifies what a rule script returned.
type ResultKind int

const (
	// KindNumber means the script returned a numeric value to charge.
	KindNumber ResultKind = iota
	// KindBool means the script returned a boolean activation decision.
	KindBool
	// KindOther covers every other return value, which rating treats as
	// "tariff does not apply".
	KindOther
)

// Result is the classified outcome of one rule execution.
type Result struct {
	Kind   ResultKind
	Number decimal.Decimal
	Bool   bool
}

var ErrTimeout = errors.New("rule_execution_timeout")

// Interpreter wraps one goja runtime. It is reused across all records of a
// single account pass and must not be shared between goroutines.
type Interpreter struct {
	vm      *goja.Runtime
	timeout time.Duration
	log     *zap.Logger
}

// NewInterpreter builds the sandbox. Construction failure is fatal for the
// account being processed; callers must not fall back to rating without
// rules, that would charge conditional tariffs unconditionally.
func NewInterpreter(timeout time.Duration, log *zap.Logger) (*Interpreter, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	return &Interpreter{
		vm:      vm,
		timeout: timeout,
		log:     log.Named("rule.interpreter"),
	}, nil
}

// InjectVariables exposes the given values as globals inside the sandbox.
// Later injections overwrite earlier ones, so the interpreter can be reused
// record after record.
func (i *Interpreter) InjectVariables(vars map[string]any) error {
	for name, value := range vars {
		if err := i.vm.Set(name, value); err != nil {
			return fmt.Errorf("inject variable %q: %w", name, err)
		}
	}
	return nil
}

// Execute runs one script under the configured deadline and classifies the
// returned value. Scripts that exceed the deadline are interrupted and
// reported as ErrTimeout.
func (i *Interpreter) Execute(script string) (Result, error) {
	timer := time.AfterFunc(i.timeout, func() {
		i.vm.Interrupt(ErrTimeout)
	})
	defer timer.Stop()
	defer i.vm.ClearInterrupt()

	value, err := i.vm.RunString(script)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return Result{Kind: KindOther}, ErrTimeout
		}
		return Result{Kind: KindOther}, fmt.Errorf("run script: %w", err)
	}
	return classify(value), nil
}

func classify(value goja.Value) Result {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return Result{Kind: KindOther}
	}
	switch exported := value.Export().(type) {
	case int64:
		return Result{Kind: KindNumber, Number: decimal.NewFromInt(exported)}
	case float64:
		return Result{Kind: KindNumber, Number: decimal.NewFromFloat(exported)}
	case bool:
		return Result{Kind: KindBool, Bool: exported}
	case string:
		// Scripts occasionally return stringified numbers or booleans;
		// treat them as their parsed counterparts.
		if n, err := decimal.NewFromString(exported); err == nil {
			return Result{Kind: KindNumber, Number: n}
		}
		if b, err := strconv.ParseBool(exported); err == nil {
			return Result{Kind: KindBool, Bool: b}
		}
		return Result{Kind: KindOther}
	default:
		return Result{Kind: KindOther}
	}
}
