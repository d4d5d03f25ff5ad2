// Package inline evaluates %[...] expressions against a closed set of
// functions over the artifact registry and the productivity log.
package inline

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/logstore"
	"github.com/starford/vos/internal/registry"
)

// Evaluator compiles and runs inline expressions. Only the functions
// registered in options are reachable; there is no access to the host.
type Evaluator struct {
	reg   *registry.Registry
	store logstore.Store
}

// New creates an Evaluator. reg may be nil when only log functions are used.
func New(reg *registry.Registry, store logstore.Store) *Evaluator {
	return &Evaluator{reg: reg, store: store}
}

// Evaluate runs code and renders its result as text.
func (e *Evaluator) Evaluate(ctx context.Context, code string) (string, error) {
	env := map[string]any{}
	opts := append([]expr.Option{expr.Env(env)}, e.functions(ctx)...)
	program, err := expr.Compile(code, opts...)
	if err != nil {
		return "", apperr.Evaluation(code, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", apperr.Evaluation(code, err)
	}
	return Format(out), nil
}

// Format renders a value the way it appears in page text. Floats use the
// shortest representation that round-trips.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

var errNoRegistry = errors.New("artifact registry unavailable")

func (e *Evaluator) functions(ctx context.Context) []expr.Option {
	// projectFn registers a function taking an optional project name.
	projectFn := func(name string, fn func(logstore.Filter) (any, error)) expr.Option {
		return expr.Function(name, func(params ...any) (any, error) {
			args, err := stringArgs(name, params, 0, 1)
			if err != nil {
				return nil, err
			}
			return fn(logstore.Filter{Project: at(args, 0)})
		})
	}
	return []expr.Option{
		projectFn("logHours", func(f logstore.Filter) (any, error) { return e.store.Hours(ctx, f) }),
		projectFn("logDays", func(f logstore.Filter) (any, error) { return e.store.Days(ctx, f) }),
		projectFn("logCount", func(f logstore.Filter) (any, error) { return e.store.Count(ctx, f) }),
		projectFn("hoursPerDay", func(f logstore.Filter) (any, error) { return HoursPerDay(ctx, e.store, f) }),
		projectFn("firstDate", func(f logstore.Filter) (any, error) {
			first, _, err := e.dateRange(ctx, f)
			return first, err
		}),
		projectFn("lastDate", func(f logstore.Filter) (any, error) {
			_, last, err := e.dateRange(ctx, f)
			return last, err
		}),
		projectFn("dateRange", func(f logstore.Filter) (any, error) {
			first, last, err := e.dateRange(ctx, f)
			if err != nil || first == "" {
				return "", err
			}
			return first + " · " + last, nil
		}),
		expr.Function("divisionHours", func(params ...any) (any, error) {
			args, err := stringArgs("divisionHours", params, 1, 2)
			if err != nil {
				return nil, err
			}
			return e.store.Hours(ctx, logstore.Filter{Division: args[0], Project: at(args, 1)})
		}),
		expr.Function("artifactCount", func(params ...any) (any, error) {
			args, err := stringArgs("artifactCount", params, 0, 1)
			if err != nil {
				return nil, err
			}
			if e.reg == nil {
				return nil, errNoRegistry
			}
			if tag := at(args, 0); tag != "" {
				return len(e.reg.WithTag(tag)), nil
			}
			return e.reg.Len(), nil
		}),
		expr.Function("pageCount", func(params ...any) (any, error) {
			if _, err := stringArgs("pageCount", params, 0, 0); err != nil {
				return nil, err
			}
			if e.reg == nil {
				return nil, errNoRegistry
			}
			return e.reg.Len(), nil
		}),
	}
}

// dateRange treats an empty match as empty strings rather than an error.
func (e *Evaluator) dateRange(ctx context.Context, f logstore.Filter) (string, string, error) {
	first, last, err := e.store.DateRange(ctx, f)
	if errors.Is(err, apperr.ErrAggregationMiss) {
		return "", "", nil
	}
	return first, last, err
}

// HoursPerDay returns total hours divided by distinct days, 0 when no days match.
func HoursPerDay(ctx context.Context, store logstore.Store, f logstore.Filter) (float64, error) {
	hours, err := store.Hours(ctx, f)
	if err != nil {
		return 0, err
	}
	days, err := store.Days(ctx, f)
	if err != nil || days == 0 {
		return 0, err
	}
	return hours / float64(days), nil
}

// stringArgs checks arity and converts every argument to a string.
func stringArgs(fn string, params []any, lo, hi int) ([]string, error) {
	if len(params) < lo || len(params) > hi {
		return nil, fmt.Errorf("%s: expected %d to %d arguments, got %d", fn, lo, hi, len(params))
	}
	out := make([]string, len(params))
	for i, p := range params {
		s, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be a string, got %T", fn, i+1, p)
		}
		out[i] = s
	}
	return out, nil
}

func at(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
