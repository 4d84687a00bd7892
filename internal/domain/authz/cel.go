package authz

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"

	"cartera/internal/core/appctx"
	"cartera/internal/core/apperror"
	"cartera/pkg/logger"
)

// CELAuthorizer evaluates per-action CEL expressions. Each expression sees:
//
//	actor_id  string        the acting user's id
//	roles     list(string)  the actor's roles
//	env       map(string)   action environment (seller_id, payment_status, ...)
//
// and must evaluate to bool. Actions without an expression fall back to the
// wrapped authorizer.
type CELAuthorizer struct {
	fallback Authorizer
	programs map[string]cel.Program
}

// NewCELAuthorizer compiles the given action->expression rules.
func NewCELAuthorizer(fallback Authorizer, rules map[string]string) (*CELAuthorizer, error) {
	celEnv, err := cel.NewEnv(
		cel.Variable("actor_id", cel.StringType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("env", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}

	programs := make(map[string]cel.Program, len(rules))
	for action, expr := range rules {
		ast, iss := celEnv.Compile(expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule for %s: %w", action, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule for %s must return bool, got %s", action, ast.OutputType())
		}
		prg, err := celEnv.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build program for %s: %w", action, err)
		}
		programs[action] = prg
	}

	return &CELAuthorizer{fallback: fallback, programs: programs}, nil
}

func (a *CELAuthorizer) Authorize(ctx context.Context, actor *appctx.Actor, action string, env Env) error {
	prg, ok := a.programs[action]
	if !ok {
		return a.fallback.Authorize(ctx, actor, action, env)
	}

	if actor == nil {
		actor = &appctx.Actor{}
	}
	if env == nil {
		env = Env{}
	}
	out, _, err := prg.Eval(map[string]any{
		"actor_id": actor.UserID,
		"roles":    actor.Roles,
		"env":      map[string]any(env),
	})
	if err != nil {
		logger.Error(ctx, "authorization rule evaluation failed",
			"action", action, "error", err)
		return apperror.NewForbidden("authorization rule failed").
			WithDetail("action", action)
	}

	if out != celtypes.True {
		return apperror.NewForbidden("action not permitted").
			WithDetail("action", action)
	}
	return nil
}
