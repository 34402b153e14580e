package docsvc

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/fanout"
)

// NewFilter compiles a CEL expression into an accept predicate for viewer
// subscriptions and historical listing. An empty expression accepts
// everything. Evaluation errors reject the document rather than failing the
// viewer.
//
// Exposed variables:
//
//	id       int     document identifier
//	type     string  document kind discriminator
//	session  string  producer session identifier
//	severity string  error severity name (empty for non-errors)
//	class    string  severity class (empty for non-errors)
//	message  string  error message (empty for non-errors)
//	file     string  error source file (empty for non-errors)
//	data     dyn     parsed document payload
//	now_ms   int     current time in ms for windowed filters
func NewFilter(expr string) (fanout.AcceptFunc, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("type", cel.StringType),
		cel.Variable("session", cel.StringType),
		cel.Variable("severity", cel.StringType),
		cel.Variable("class", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("file", cel.StringType),
		cel.Variable("data", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return func(env2 *document.Envelope) bool {
		return evalFilter(prog, env2)
	}, nil
}

func evalFilter(prog cel.Program, env *document.Envelope) bool {
	var severity, class, message, file string
	if errDoc, ok := env.Document.(document.Error); ok {
		severity = string(errDoc.Severity)
		class = string(errDoc.Severity.Class())
		message = errDoc.Message
		file = errDoc.File
	}
	var data any
	if raw, err := json.Marshal(env.Document); err == nil {
		_ = json.Unmarshal(raw, &data)
	}
	out, _, err := prog.Eval(map[string]any{
		"id":       int64(env.ID),
		"type":     env.Document.DocumentType(),
		"session":  env.SessionID,
		"severity": severity,
		"class":    class,
		"message":  message,
		"file":     file,
		"data":     data,
		"now_ms":   time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
