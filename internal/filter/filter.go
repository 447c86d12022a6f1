// Package filter evaluates an optional user-supplied expression that decides
// which processes participate in a scan.
//
// Expressions see two variables: pid (int) and name (string), and must yield
// a boolean. Examples:
//
//	name != "chrome"
//	pid > 1000 && name matches "^java"
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/mrzor/sockowner/internal/process"
)

// Filter holds a pre-compiled keep/skip expression. A nil *Filter keeps
// every process.
type Filter struct {
	prog *vm.Program
}

// New compiles expression into a Filter. An empty expression returns a nil
// Filter, meaning no filtering. Compilation errors are fatal: a filter that
// cannot compile would silently scan everything.
func New(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}

	exprEnv := map[string]interface{}{
		"pid":  0,
		"name": "",
	}
	prog, err := expr.Compile(expression, expr.Env(exprEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling process filter %q: %w", expression, err)
	}
	return &Filter{prog: prog}, nil
}

// Keep reports whether p should participate in the scan. Evaluation errors
// keep the process: a broken filter must not hide sockets.
func (f *Filter) Keep(p process.Process) bool {
	if f == nil {
		return true
	}

	out, err := expr.Run(f.prog, map[string]interface{}{
		"pid":  p.PID,
		"name": p.Name,
	})
	if err != nil {
		return true
	}

	keep, ok := out.(bool)
	if !ok {
		return true
	}
	return keep
}
