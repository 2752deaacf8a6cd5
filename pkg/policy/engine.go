package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog"

	"github.com/openfroyo/ucm/pkg/engine"
)

// Options configures an Engine.
type Options struct {
	// AdminGroups are the identity groups whose members are administrators.
	AdminGroups []string
}

// Engine implements engine.Authorizer with a single compiled Rego module.
type Engine struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	opts   Options
	loader *Loader

	policy *Policy
	query  rego.PreparedEvalQuery
}

// NewEngine creates an engine running the built-in access policy.
func NewEngine(logger zerolog.Logger, opts Options) (*Engine, error) {
	e := &Engine{
		logger: logger.With().Str("component", "policy-engine").Logger(),
		opts:   opts,
		loader: NewLoader(logger),
	}

	builtin := BuiltinPolicy()
	if err := e.Load(context.Background(), &builtin); err != nil {
		return nil, fmt.Errorf("failed to load built-in policy: %w", err)
	}
	return e, nil
}

// Load compiles p and makes it the active policy. The previous policy stays
// active when compilation fails.
func (e *Engine) Load(ctx context.Context, p *Policy) error {
	module, err := ast.ParseModuleWithOpts(p.Name+".rego", p.Rego, ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return fmt.Errorf("failed to parse policy %s: %w", p.Name, err)
	}

	query, err := rego.New(
		rego.ParsedModule(module),
		rego.Query(module.Package.Path.String()),
	).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare policy %s: %w", p.Name, err)
	}

	e.mu.Lock()
	e.policy = p
	e.query = query
	e.mu.Unlock()

	e.logger.Info().
		Str("policy", p.Name).
		Str("package", strings.TrimPrefix(module.Package.Path.String(), "data.")).
		Str("source", p.Source).
		Msg("Access policy loaded")
	return nil
}

// LoadFile replaces the active policy with the module in path.
func (e *Engine) LoadFile(ctx context.Context, path string) error {
	p, err := e.loader.LoadFile(path)
	if err != nil {
		return err
	}
	return e.Load(ctx, p)
}

// Watch reloads the policy in path whenever the file changes, until ctx is
// done. Reload failures are logged and keep the previous policy.
func (e *Engine) Watch(ctx context.Context, path string) error {
	return e.loader.Watch(ctx, path, func(p *Policy) error {
		return e.Load(ctx, p)
	})
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return *e.policy
}

// Authorize evaluates the active policy for p running op.
func (e *Engine) Authorize(ctx context.Context, p engine.Principal, op engine.Operation) (engine.Decision, error) {
	e.mu.RLock()
	query := e.query
	name := e.policy.Name
	e.mu.RUnlock()

	in := Input{Principal: p, Operation: op, AdminGroups: e.opts.AdminGroups}
	results, err := query.Eval(ctx, rego.EvalInput(in.toValue()))
	if err != nil {
		return engine.Decision{}, engine.NewPermanentError("policy evaluation failed", err).
			WithCode(engine.ErrCodeInternal).WithResource(name)
	}

	d := decide(results)
	e.logger.Debug().
		Str("policy", name).
		Str("subject", p.Subject).
		Str("operation", string(op)).
		Bool("allowed", d.Allowed).
		Str("view", string(d.View)).
		Msg("Access decision")
	return d, nil
}

// decide reads allow and view from the package document. Anything missing or
// malformed falls back to a denied business view.
func decide(results rego.ResultSet) engine.Decision {
	d := engine.Decision{View: engine.ViewBusiness}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return d
	}
	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return d
	}
	if allow, ok := doc["allow"].(bool); ok {
		d.Allowed = allow
	}
	if view, ok := doc["view"].(string); ok && engine.View(view) == engine.ViewAdmin {
		d.View = engine.ViewAdmin
	}
	return d
}
