package rewrite

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// condEnv is the CEL environment for rule conditions. Conditions see
// the request path, host, method, and a map of first header values.
var condEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("path", cel.StringType),
		cel.Variable("host", cel.StringType),
		cel.Variable("method", cel.StringType),
		cel.Variable("header", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		panic(fmt.Sprintf("rewrite: failed to create CEL environment: %v", err))
	}
	return env
}()

// condition is a compiled rule condition.
type condition struct {
	expr string
	prog cel.Program
}

// compileCondition compiles a CEL condition expression. Unknown
// variables and syntax errors are rejected here, at load time.
func compileCondition(expr string) (*condition, error) {
	ast, issues := condEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	prog, err := condEnv.Program(ast)
	if err != nil {
		return nil, err
	}

	return &condition{expr: expr, prog: prog}, nil
}

// eval evaluates the condition against the input. A non-boolean result
// or an evaluation error counts as false, so the rule falls through.
func (c *condition) eval(in Input) bool {
	header := make(map[string]string, len(in.Header))
	for name, values := range in.Header {
		if len(values) > 0 {
			header[name] = values[0]
		}
	}

	out, _, err := c.prog.Eval(map[string]interface{}{
		"path":   in.Path,
		"host":   in.Host,
		"method": in.Method,
		"header": header,
	})
	if err != nil {
		return false
	}

	result, ok := out.Value().(bool)
	return ok && result
}
