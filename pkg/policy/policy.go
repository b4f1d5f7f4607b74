package policy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Query is the Rego document evaluated for every submission
const Query = "data.pitch"

// Decision is the result of evaluating a submission
type Decision struct {
	Allow  bool
	Reason string
}

// Policy gates pitch submissions with Rego rules. A nil *Policy allows everything.
//
// Rules live in package pitch and may define `deny contains msg if {...}` and/or
// `allow := bool`. Input is {"startup_name", "main_theme", "user_id"}.
type Policy struct {
	query *rego.PreparedEvalQuery
}

// Load reads every .rego file in dir. An empty dir or a dir without policies yields nil.
func Load(ctx context.Context, dir string) (*Policy, error) {
	if dir == "" {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return New(ctx, modules)
}

// New prepares a policy from module name → Rego source
func New(ctx context.Context, modules map[string]string) (*Policy, error) {
	options := make([]func(*rego.Rego), 0, len(modules)+1)
	options = append(options, rego.Query(Query))
	for name, src := range modules {
		options = append(options, rego.Module(name, src))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.V("query", Query))
	}

	return &Policy{query: &prepared}, nil
}

// Evaluate decides whether user may submit req
func (p *Policy) Evaluate(ctx context.Context, req model.PitchRequest, userID model.UserID) (*Decision, error) {
	if p == nil || p.query == nil {
		return &Decision{Allow: true}, nil
	}

	input := map[string]any{
		"startup_name": req.StartupName,
		"main_theme":   req.MainTheme,
		"user_id":      string(userID),
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate policy")
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return &Decision{Allow: true}, nil
	}

	doc, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("unexpected policy result", goerr.V("value", rs[0].Expressions[0].Value))
	}

	decision := &Decision{Allow: true}
	if allow, ok := doc["allow"].(bool); ok {
		decision.Allow = allow
	}

	if denies, ok := doc["deny"].([]any); ok && len(denies) > 0 {
		decision.Allow = false
		if msg, ok := denies[0].(string); ok {
			decision.Reason = msg
		}
	}
	if !decision.Allow && decision.Reason == "" {
		decision.Reason = "rejected by policy"
	}

	return decision, nil
}
