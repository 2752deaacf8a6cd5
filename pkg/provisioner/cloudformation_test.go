package provisioner

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cloudformation.CreateStackOutput)
	return out, args.Error(1)
}

func (m *mockAPI) UpdateStack(ctx context.Context, in *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cloudformation.UpdateStackOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cloudformation.DeleteStackOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*cloudformation.DescribeStacksOutput)
	return out, args.Error(1)
}

const stackID = "arn:aws:cloudformation:us-east-1:123456789012:stack/ucm-abcdef12/1"

func apiError(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg, Fault: smithy.FaultClient}
}

func describeOutput(status types.StackStatus) *cloudformation.DescribeStacksOutput {
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{{
		StackId:     aws.String(stackID),
		StackName:   aws.String("ucm-abcdef12"),
		StackStatus: status,
		Outputs: []types.Output{
			{OutputKey: aws.String("WebUrl"), OutputValue: aws.String("https://chat.example.com")},
		},
		Parameters: []types.Parameter{
			{ParameterKey: aws.String(usecase.ParamUseCaseUUID), ParameterValue: aws.String("abcdef12")},
		},
	}}}
}

func TestCreateStack(t *testing.T) {
	api := &mockAPI{}
	p := New(api, Options{Tags: map[string]string{"team": "ai", "app": "ucm"}})

	api.On("CreateStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.CreateStackInput) bool {
		return aws.ToString(in.StackName) == "ucm-abcdef12" &&
			aws.ToString(in.TemplateURL) == "https://t.example.com/TextUseCaseStack.template.json" &&
			aws.ToString(in.RoleARN) == "arn:aws:iam::123456789012:role/deployer" &&
			len(in.Parameters) == 2 &&
			aws.ToString(in.Parameters[0].ParameterKey) == usecase.ParamUseCaseUUID &&
			len(in.Capabilities) == 3 &&
			len(in.Tags) == 2 && aws.ToString(in.Tags[0].Key) == "app"
	})).Return(&cloudformation.CreateStackOutput{StackId: aws.String(stackID)}, nil).Once()

	id, err := p.CreateStack(context.Background(), engine.StackInput{
		StackName:   "ucm-abcdef12",
		TemplateURL: "https://t.example.com/TextUseCaseStack.template.json",
		Parameters: usecase.Parameters{
			{Key: usecase.ParamUseCaseUUID, Value: "abcdef12"},
			{Key: usecase.ParamUseCaseConfigRecordKey, Value: "abcdef12-key"},
		},
		RoleARN: "arn:aws:iam::123456789012:role/deployer",
	})
	require.NoError(t, err)
	assert.Equal(t, stackID, id)
	api.AssertExpectations(t)
}

func TestCreateStackAlreadyExists(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateStack", mock.Anything, mock.Anything).
		Return(nil, apiError("AlreadyExistsException", "Stack [ucm-abcdef12] already exists")).Once()

	_, err := New(api, Options{}).CreateStack(context.Background(), engine.StackInput{StackName: "ucm-abcdef12"})
	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))
}

func TestUpdateStackKeepsTemplateWhenUnset(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.UpdateStackInput) bool {
		return in.TemplateURL == nil && aws.ToBool(in.UsePreviousTemplate) && in.RoleARN == nil
	})).Return(&cloudformation.UpdateStackOutput{StackId: aws.String(stackID)}, nil).Once()

	err := New(api, Options{}).UpdateStack(context.Background(), engine.StackUpdate{StackID: stackID})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestUpdateStackNoChangesIsSuccess(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateStack", mock.Anything, mock.Anything).
		Return(nil, apiError("ValidationError", "No updates are to be performed.")).Once()

	err := New(api, Options{}).UpdateStack(context.Background(), engine.StackUpdate{StackID: stackID, TemplateURL: "https://t"})
	assert.NoError(t, err)
}

func TestUpdateStackInProgress(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateStack", mock.Anything, mock.Anything).
		Return(nil, apiError("ValidationError", "Stack:"+stackID+" is in UPDATE_IN_PROGRESS state and can not be updated.")).Once()

	err := New(api, Options{}).UpdateStack(context.Background(), engine.StackUpdate{StackID: stackID})
	require.Error(t, err)
	assert.True(t, engine.IsConflict(err))
}

func TestDescribeStack(t *testing.T) {
	api := &mockAPI{}
	api.On("DescribeStacks", mock.Anything, mock.Anything).Return(describeOutput(types.StackStatusCreateComplete), nil).Once()

	d, err := New(api, Options{}).DescribeStack(context.Background(), stackID)
	require.NoError(t, err)
	assert.Equal(t, "CREATE_COMPLETE", d.Status)
	assert.Equal(t, "https://chat.example.com", d.Outputs["WebUrl"])
	assert.Equal(t, "abcdef12", d.Parameters.Value(usecase.ParamUseCaseUUID))
}

func TestDescribeMissingStack(t *testing.T) {
	api := &mockAPI{}
	api.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(nil, apiError("ValidationError", "Stack with id "+stackID+" does not exist")).Once()

	_, err := New(api, Options{}).DescribeStack(context.Background(), stackID)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestDeleteStack(t *testing.T) {
	api := &mockAPI{}
	api.On("DescribeStacks", mock.Anything, mock.Anything).Return(describeOutput(types.StackStatusUpdateComplete), nil).Once()
	api.On("DeleteStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.DeleteStackInput) bool {
		return aws.ToString(in.StackName) == stackID && aws.ToString(in.RoleARN) == "arn:role"
	})).Return(&cloudformation.DeleteStackOutput{}, nil).Once()

	err := New(api, Options{}).DeleteStack(context.Background(), stackID, "arn:role")
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestDeleteStackAlreadyDeleted(t *testing.T) {
	api := &mockAPI{}
	api.On("DescribeStacks", mock.Anything, mock.Anything).Return(describeOutput(types.StackStatusDeleteComplete), nil).Once()

	err := New(api, Options{}).DeleteStack(context.Background(), stackID, "")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
	api.AssertNotCalled(t, "DeleteStack", mock.Anything, mock.Anything)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"throttled", apiError("Throttling", "Rate exceeded"), engine.IsThrottled},
		{"server fault", &smithy.GenericAPIError{Code: "InternalFailure", Fault: smithy.FaultServer}, engine.IsTransient},
		{"access denied", apiError("AccessDenied", "not authorized"), engine.IsPermanent},
		{"network", errors.New("connection reset"), engine.IsTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("create stack", "s", tt.err)
			assert.True(t, tt.check(err), "got %v", err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
