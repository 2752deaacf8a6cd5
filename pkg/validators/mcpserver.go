package validators

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// Limits applied to MCP runtime environment variables.
const (
	MaxEnvironmentVariables    = 50
	MaxEnvironmentVariableSize = 4096
)

var (
	targetNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]{1,100}$`)
	schemaURIPattern  = regexp.MustCompile(`^mcp/schemas/([A-Za-z]+)/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\.([A-Za-z]+)$`)
	lambdaArnPattern  = regexp.MustCompile(`^arn:aws[a-zA-Z-]*:lambda:[a-z0-9-]+:\d{12}:function:[a-zA-Z0-9_-]+(:(\$LATEST|[a-zA-Z0-9_-]+))?$`)
	ecrURIPattern     = regexp.MustCompile(`^\d{12}\.dkr\.ecr\.[a-z0-9-]+\.amazonaws\.com(\.cn)?/[a-z0-9]+([._/-][a-z0-9]+)*:[A-Za-z0-9_][A-Za-z0-9._-]{0,127}$`)
	envVarNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// schemaExtensions lists the schema file extensions accepted per target type.
var schemaExtensions = map[string][]string{
	"lambda":        {"json"},
	"openApiSchema": {"json", "yaml", "yml"},
	"smithyModel":   {"json", "smithy"},
}

// MCPServerValidator validates MCP servers deployed either as a gateway in
// front of existing targets or as a container runtime.
type MCPServerValidator struct {
	common
}

// NewMCPServerValidator creates a validator for MCPServer use cases.
func NewMCPServerValidator(deps Deps) *MCPServerValidator {
	return &MCPServerValidator{common: newCommon(deps, usecase.TypeMCPServer)}
}

// ValidateForCreate implements Validator.
func (v *MCPServerValidator) ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	return v.create(ctx, uc, v.check)
}

// ValidateForUpdate implements Validator.
func (v *MCPServerValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error) {
	return v.update(ctx, uc, oldConfigKey, v.check)
}

func (v *MCPServerValidator) check(_ context.Context, uc *usecase.UseCase) error {
	var cfg mcpServerConfig
	if err := decodeAndCheck(uc.Config, &cfg); err != nil {
		return err
	}

	gw, rt := cfg.MCPParams.GatewayParams, cfg.MCPParams.RuntimeParams
	if (gw == nil) == (rt == nil) {
		return engine.NewValidationError(MsgMCPExactlyOne)
	}
	if gw != nil {
		return checkGateway(gw)
	}
	return checkRuntime(rt)
}

func checkGateway(gw *gatewayParams) error {
	seen := make(map[string]bool, len(gw.TargetParams))
	for i, t := range gw.TargetParams {
		at := fmt.Sprintf("MCPParams.GatewayParams.TargetParams[%d]", i)

		if !targetNamePattern.MatchString(t.TargetName) {
			return engine.NewValidationErrorf(MsgTargetNameFormat, t.TargetName, at)
		}
		if seen[t.TargetName] {
			return engine.NewValidationErrorf(MsgTargetNameDuplicate, t.TargetName)
		}
		seen[t.TargetName] = true

		if err := checkSchemaURI(t, at); err != nil {
			return err
		}

		if t.TargetType == "lambda" {
			if t.LambdaArn == "" {
				return engine.NewValidationErrorf(MsgLambdaArnRequired, at)
			}
			if !lambdaArnPattern.MatchString(t.LambdaArn) {
				return engine.NewValidationErrorf(MsgLambdaArnFormat, t.LambdaArn, at)
			}
		}
	}
	return nil
}

func checkSchemaURI(t gatewayTarget, at string) error {
	m := schemaURIPattern.FindStringSubmatch(t.SchemaURI)
	if m == nil {
		return engine.NewValidationErrorf(MsgSchemaURIFormat, t.SchemaURI, at)
	}
	dir, ext := m[1], strings.ToLower(m[2])
	if dir != t.TargetType {
		return engine.NewValidationErrorf(MsgSchemaURITypeMismatch, at, dir, t.TargetType)
	}
	allowed := schemaExtensions[t.TargetType]
	if !slices.Contains(allowed, ext) {
		return engine.NewValidationErrorf(MsgSchemaURIExtension, at, ext, t.TargetType, strings.Join(allowed, ", "))
	}
	return nil
}

func checkRuntime(rt *runtimeParams) error {
	if !ecrURIPattern.MatchString(rt.EcrURI) {
		return engine.NewValidationErrorf(MsgEcrURIFormat, rt.EcrURI)
	}

	vars := rt.EnvironmentVariables
	if len(vars) > MaxEnvironmentVariables {
		return engine.NewValidationErrorf(MsgEnvVarCount, MaxEnvironmentVariables, len(vars))
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	size := 0
	for _, name := range names {
		if !envVarNamePattern.MatchString(name) {
			return engine.NewValidationErrorf(MsgEnvVarName, name)
		}
		size += len(name) + len(vars[name])
	}
	if size > MaxEnvironmentVariableSize {
		return engine.NewValidationErrorf(MsgEnvVarSize, MaxEnvironmentVariableSize, size)
	}
	return nil
}
