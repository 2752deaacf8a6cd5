// Package provisioner drives use case stacks through AWS CloudFormation.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// API is the subset of the CloudFormation client used by the provisioner.
type API interface {
	CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, in *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// Options configures the provisioner.
type Options struct {
	// Tags are applied to every stack created.
	Tags map[string]string
}

// CloudFormation implements engine.Provisioner.
type CloudFormation struct {
	api  API
	opts Options
}

var _ engine.Provisioner = (*CloudFormation)(nil)

// stackCapabilities are acknowledged on every create and update; the use
// case templates create named IAM roles and use nested stacks.
var stackCapabilities = []types.Capability{
	types.CapabilityCapabilityIam,
	types.CapabilityCapabilityNamedIam,
	types.CapabilityCapabilityAutoExpand,
}

// New wraps a CloudFormation client.
func New(api API, opts Options) *CloudFormation {
	return &CloudFormation{api: api, opts: opts}
}

// NewFromConfig creates a provisioner from an AWS configuration.
func NewFromConfig(cfg aws.Config, opts Options) *CloudFormation {
	return New(cloudformation.NewFromConfig(cfg), opts)
}

// CreateStack starts stack creation and returns the stack id. It does not
// wait for completion.
func (c *CloudFormation) CreateStack(ctx context.Context, in engine.StackInput) (string, error) {
	out, err := c.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(in.StackName),
		TemplateURL:  aws.String(in.TemplateURL),
		Parameters:   toParameters(in.Parameters),
		Capabilities: stackCapabilities,
		RoleARN:      optional(in.RoleARN),
		Tags:         toTags(c.opts.Tags),
	})
	if err != nil {
		return "", classify("create stack", in.StackName, err)
	}
	return aws.ToString(out.StackId), nil
}

// UpdateStack starts a stack update. An update that changes nothing is not
// an error.
func (c *CloudFormation) UpdateStack(ctx context.Context, in engine.StackUpdate) error {
	req := &cloudformation.UpdateStackInput{
		StackName:    aws.String(in.StackID),
		Parameters:   toParameters(in.Parameters),
		Capabilities: stackCapabilities,
		RoleARN:      optional(in.RoleARN),
	}
	if in.TemplateURL != "" {
		req.TemplateURL = aws.String(in.TemplateURL)
	} else {
		req.UsePreviousTemplate = aws.Bool(true)
	}

	_, err := c.api.UpdateStack(ctx, req)
	if isNoUpdate(err) {
		return nil
	}
	if err != nil {
		return classify("update stack", in.StackID, err)
	}
	return nil
}

// DeleteStack starts stack deletion. CloudFormation accepts deletion of a
// stack that is already gone, so the stack is described first to report it
// as not found.
func (c *CloudFormation) DeleteStack(ctx context.Context, stackID, roleARN string) error {
	details, err := c.DescribeStack(ctx, stackID)
	if err != nil {
		return err
	}
	if details.Status == string(types.StackStatusDeleteComplete) {
		return engine.NewNotFoundError("stack already deleted", nil).WithResource(stackID)
	}

	_, err = c.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(stackID),
		RoleARN:   optional(roleARN),
	})
	if err != nil {
		return classify("delete stack", stackID, err)
	}
	return nil
}

// DescribeStack returns the live status, outputs and parameters of a stack.
func (c *CloudFormation) DescribeStack(ctx context.Context, stackID string) (*engine.StackDetails, error) {
	out, err := c.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackID),
	})
	if err != nil {
		return nil, classify("describe stack", stackID, err)
	}
	if len(out.Stacks) == 0 {
		return nil, engine.NewNotFoundError("stack does not exist", nil).WithResource(stackID)
	}

	s := out.Stacks[0]
	details := &engine.StackDetails{
		StackID:      aws.ToString(s.StackId),
		StackName:    aws.ToString(s.StackName),
		Status:       string(s.StackStatus),
		StatusReason: aws.ToString(s.StackStatusReason),
		Outputs:      make(map[string]string, len(s.Outputs)),
	}
	for _, o := range s.Outputs {
		details.Outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	for _, p := range s.Parameters {
		details.Parameters = append(details.Parameters, usecase.Parameter{
			Key:   aws.ToString(p.ParameterKey),
			Value: aws.ToString(p.ParameterValue),
		})
	}
	return details, nil
}

func toParameters(params usecase.Parameters) []types.Parameter {
	out := make([]types.Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, types.Parameter{
			ParameterKey:   aws.String(p.Key),
			ParameterValue: aws.String(p.Value),
		})
	}
	return out
}

func toTags(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func isNoUpdate(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
}

// classify maps CloudFormation API errors onto the engine error taxonomy.
func classify(op, stack string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return engine.NewTransientError("failed to "+op, err).
			WithCode(engine.ErrCodeProviderFailed).WithResource(stack)
	}

	msg := fmt.Sprintf("failed to %s: %s", op, apiErr.ErrorMessage())
	switch code := apiErr.ErrorCode(); {
	case code == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist"):
		return engine.NewNotFoundError("stack does not exist", err).WithResource(stack)
	case code == "Throttling" || code == "ThrottlingException":
		return engine.NewThrottledError(msg, err).WithCode(engine.ErrCodeProviderFailed).WithResource(stack)
	case code == "AlreadyExistsException":
		return engine.NewConflictError(msg, err).WithCode(engine.ErrCodeAlreadyExists).WithResource(stack)
	case code == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "_IN_PROGRESS state"):
		return engine.NewConflictError(msg, err).WithCode(engine.ErrCodeConflict).WithResource(stack)
	case apiErr.ErrorFault() == smithy.FaultServer:
		return engine.NewTransientError(msg, err).WithCode(engine.ErrCodeProviderFailed).WithResource(stack)
	default:
		return engine.NewPermanentError(msg, err).WithCode(engine.ErrCodeProviderFailed).WithResource(stack)
	}
}
