package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/listing"
	"github.com/openfroyo/ucm/pkg/usecase"
	"github.com/openfroyo/ucm/pkg/validators"
)

func textConfig() usecase.Config {
	return usecase.Config{
		"LlmParams": map[string]any{
			"ModelProvider": "Bedrock",
			"Streaming":     true,
			"BedrockLlmParams": map[string]any{
				"ModelId": "anthropic.claude-v2",
			},
		},
	}
}

func TestCreateProvisionsAndRecords(t *testing.T) {
	f := newFixture()
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "support bot", "user-1", nil, textConfig())

	f.prov.On("CreateStack", mock.Anything, mock.MatchedBy(func(in engine.StackInput) bool {
		return in.StackName == "ucm-abcdef12" &&
			in.TemplateURL == "https://templates.example.com/v1/TextUseCaseStack.template.json" &&
			in.RoleARN == "arn:aws:iam::123456789012:role/ucm-deployer" &&
			in.Parameters.Value(usecase.ParamUseCaseConfigTableName) == "UseCaseConfig" &&
			in.Parameters.Value(usecase.ParamUseCaseUUID) == "abcdef12"
	})).Return(testStackID, nil).Once()

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)
	f.prov.AssertExpectations(t)

	assert.Equal(t, testStackID, uc.StackID)
	assert.True(t, strings.HasPrefix(uc.ConfigRecordKey, "abcdef12-"))
	assert.Equal(t, uc.ConfigRecordKey, uc.Parameters.Value(usecase.ParamUseCaseConfigRecordKey))
	assert.True(t, f.configs.has(uc.ConfigRecordKey))

	rec := f.records.get(testUseCaseID)
	require.NotNil(t, rec)
	assert.Equal(t, testStackID, rec.StackID)
	assert.Equal(t, uc.ConfigRecordKey, rec.ConfigRecordKey)
	assert.Equal(t, "user-1", rec.CreatedBy)
	assert.Equal(t, testNow, rec.CreatedAt)
	assert.Nil(t, rec.ExpiresAt)
}

func TestCreateAssignsID(t *testing.T) {
	f := newFixture()
	uc := &usecase.UseCase{Type: usecase.TypeText, Name: "chat", Config: textConfig()}
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return(testStackID, nil).Once()

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)
	assert.Len(t, uc.ID, 36)
	assert.NotNil(t, f.records.get(uc.ID))
}

func TestCreateValidationFailureWritesNothing(t *testing.T) {
	f := newFixture()
	cfg := textConfig()
	cfg["Reject"] = true
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, cfg)

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
	assert.Empty(t, status)
	assert.Zero(t, f.configs.count())
	assert.Nil(t, f.records.get(testUseCaseID))
	f.prov.AssertNotCalled(t, "CreateStack", mock.Anything, mock.Anything)
}

func TestCreateStoresValidatedConfig(t *testing.T) {
	f := newFixture()
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return(testStackID, nil).Once()

	_, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)

	stored, err := f.configs.GetConfig(context.Background(), uc.ConfigRecordKey)
	require.NoError(t, err)
	assert.Equal(t, "Text", stored.String(usecase.KeyUseCaseType))
}

func TestCreateStoresModelDefaults(t *testing.T) {
	f := newFixture()
	models := modelCatalog{&usecase.ModelInfo{
		UseCase:            usecase.ModelKindChat,
		ModelProvider:      "Bedrock",
		ModelName:          "anthropic.claude-v2",
		Prompt:             "Q: {input} H: {history}",
		MaxPromptSize:      2000,
		MaxChatMessageSize: 1000,
		AllowsStreaming:    true,
	}}
	f.commands.env.deps.Validators = validators.Factory{
		usecase.TypeText: validators.NewTextValidator(validators.Deps{Configs: f.configs, Models: models}),
	}
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return(testStackID, nil).Once()

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)

	stored, err := f.configs.GetConfig(context.Background(), uc.ConfigRecordKey)
	require.NoError(t, err)
	assert.Equal(t, "Q: {input} H: {history}", stored.String("LlmParams.PromptParams.PromptTemplate"))
	limit, ok := stored.Lookup("LlmParams.PromptParams.MaxPromptTemplateLength")
	require.True(t, ok)
	assert.Equal(t, 2000, limit)
	assert.Equal(t, "Text", stored.String(usecase.KeyUseCaseType))
}

func TestCreateConfigWriteFailure(t *testing.T) {
	f := newFixture()
	f.configs.failPut = errors.New("table unavailable")
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsStoreError(err))
	assert.Empty(t, status)
	assert.Nil(t, f.records.get(testUseCaseID))
	f.prov.AssertNotCalled(t, "CreateStack", mock.Anything, mock.Anything)
}

func TestCreateUnsupportedType(t *testing.T) {
	f := newFixture()
	uc := usecase.New(testUseCaseID, usecase.TypeWorkflow, "wf", "", "user-1", nil, usecase.Config{})

	_, err := f.commands.Create.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
	assert.Zero(t, f.configs.count())
}

func TestCreateProvisioningFailureIsSoft(t *testing.T) {
	f := newFixture()
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return("", errors.New("template not found")).Once()

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, status)
	assert.Nil(t, f.records.get(testUseCaseID))
	assert.Empty(t, uc.StackID)
}

func TestCreateRecordFailureAfterProvisioningIsReturned(t *testing.T) {
	f := newFixture()
	f.records.failPut = errors.New("table unavailable")
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return(testStackID, nil).Once()

	status, err := f.commands.Create.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsStoreError(err))
	assert.Contains(t, err.Error(), testStackID)
	assert.Empty(t, status)
	assert.Equal(t, testStackID, uc.StackID)
}

func TestCreateStoresAPIKey(t *testing.T) {
	f := newFixture()
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	uc.APIKey = "sk-test"
	f.prov.On("CreateStack", mock.Anything, mock.Anything).Return(testStackID, nil).Once()

	_, err := f.commands.Create.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", f.secrets.keys[testUseCaseID])
}

func TestCreateAPIKeyWithoutSecretStore(t *testing.T) {
	f := newFixture()
	f.commands.env.deps.Secrets = nil
	uc := usecase.New(testUseCaseID, usecase.TypeText, "chat", "", "user-1", nil, textConfig())
	uc.APIKey = "sk-test"

	_, err := f.commands.Create.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
	assert.Zero(t, f.configs.count())
}

func TestUpdateRotatesConfigKey(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow.Add(-time.Hour), textConfig())
	oldKey := rec.ConfigRecordKey

	f.prov.On("UpdateStack", mock.Anything, mock.MatchedBy(func(in engine.StackUpdate) bool {
		return in.StackID == rec.StackID &&
			in.Parameters.Value(usecase.ParamUseCaseConfigRecordKey) != oldKey &&
			in.Parameters.Value(usecase.ParamUseCaseConfigRecordKey) != ""
	})).Return(nil).Once()

	uc := &usecase.UseCase{
		ID:     testUseCaseID,
		Name:   "renamed",
		Config: usecase.Config{"ConversationMemoryParams": map[string]any{"ChatHistoryLength": 10}},
	}
	status, err := f.commands.Update.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)
	f.prov.AssertExpectations(t)

	updated := f.records.get(testUseCaseID)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, uc.ConfigRecordKey, updated.ConfigRecordKey)
	assert.Equal(t, testNow, updated.UpdatedAt)
	assert.False(t, f.configs.has(oldKey))

	stored, err := f.configs.GetConfig(context.Background(), updated.ConfigRecordKey)
	require.NoError(t, err)
	assert.Equal(t, "Bedrock", stored.String("LlmParams.ModelProvider"))
	assert.True(t, stored.Has("ConversationMemoryParams.ChatHistoryLength"))
}

func TestUpdateProvisioningFailureKeepsPreviousState(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow.Add(-time.Hour), textConfig())
	f.prov.On("UpdateStack", mock.Anything, mock.Anything).Return(errors.New("update in progress")).Once()

	uc := &usecase.UseCase{ID: testUseCaseID, Type: usecase.TypeText, Config: usecase.Config{}}
	status, err := f.commands.Update.Execute(context.Background(), uc)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, status)

	assert.Equal(t, rec.ConfigRecordKey, f.records.get(testUseCaseID).ConfigRecordKey)
	assert.True(t, f.configs.has(rec.ConfigRecordKey))
	assert.Equal(t, 1, f.configs.count())
}

func TestUpdateTypeCannotChange(t *testing.T) {
	f := newFixture()
	f.deployed(testUseCaseID, testNow, textConfig())

	uc := &usecase.UseCase{ID: testUseCaseID, Type: usecase.TypeAgent, Config: usecase.Config{}}
	_, err := f.commands.Update.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsValidation(err))
	f.prov.AssertNotCalled(t, "UpdateStack", mock.Anything, mock.Anything)
}

func TestUpdateUnknownUseCase(t *testing.T) {
	f := newFixture()
	_, err := f.commands.Update.Execute(context.Background(), &usecase.UseCase{ID: testUseCaseID})
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestUpdateOldConfigDeleteFailureIsReturned(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("UpdateStack", mock.Anything, mock.Anything).Return(nil).Once()
	f.configs.failDel = errors.New("throttled")

	uc := &usecase.UseCase{ID: testUseCaseID, Config: usecase.Config{}}
	_, err := f.commands.Update.Execute(context.Background(), uc)
	require.Error(t, err)
	assert.True(t, engine.IsStoreError(err))
	assert.True(t, f.configs.has(rec.ConfigRecordKey))
	assert.True(t, f.configs.has(uc.ConfigRecordKey))
}

func TestDeleteMarksRecordsForExpiry(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, "arn:aws:iam::123456789012:role/ucm-deployer").Return(nil).Once()

	status, err := f.commands.Delete.Execute(context.Background(), testUseCaseID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)

	want := testNow.Add(90 * 24 * time.Hour)
	got := f.records.get(testUseCaseID)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, want, *got.ExpiresAt)
	assert.Equal(t, want, f.configs.expires[rec.ConfigRecordKey])
	assert.True(t, f.configs.has(rec.ConfigRecordKey))
}

func TestDeleteProvisioningFailureWritesNothing(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, mock.Anything).Return(errors.New("access denied")).Once()

	status, err := f.commands.Delete.Execute(context.Background(), testUseCaseID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, status)
	assert.Nil(t, f.records.get(testUseCaseID).ExpiresAt)
	assert.Empty(t, f.configs.expires)
}

func TestDeleteMarkFailureIsReturned(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.records.failMrk = errors.New("conditional check failed")
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, mock.Anything).Return(nil).Once()

	_, err := f.commands.Delete.Execute(context.Background(), testUseCaseID)
	require.Error(t, err)
	assert.True(t, engine.IsStoreError(err))
}

func TestPermanentlyDeleteRemovesEverything(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.secrets.keys[testUseCaseID] = "sk-test"
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, mock.Anything).Return(nil).Once()

	status, err := f.commands.PermanentlyDelete.Execute(context.Background(), testUseCaseID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)
	assert.Nil(t, f.records.get(testUseCaseID))
	assert.Zero(t, f.configs.count())
	assert.Empty(t, f.secrets.keys)
}

func TestPermanentlyDeleteToleratesMissingStack(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, mock.Anything).
		Return(engine.NewNotFoundError("stack does not exist", nil)).Once()

	status, err := f.commands.PermanentlyDelete.Execute(context.Background(), testUseCaseID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusSuccess, status)
	assert.Nil(t, f.records.get(testUseCaseID))
	assert.Zero(t, f.configs.count())
}

func TestPermanentlyDeleteOtherFailureWritesNothing(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DeleteStack", mock.Anything, rec.StackID, mock.Anything).Return(errors.New("throttled")).Once()

	status, err := f.commands.PermanentlyDelete.Execute(context.Background(), testUseCaseID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, status)
	assert.NotNil(t, f.records.get(testUseCaseID))
	assert.True(t, f.configs.has(rec.ConfigRecordKey))
}

func TestGetAdminView(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DescribeStack", mock.Anything, rec.StackID).Return(&engine.StackDetails{
		StackID: rec.StackID,
		Status:  "CREATE_COMPLETE",
		Outputs: map[string]string{"WebUrl": "https://chat.example.com"},
	}, nil).Once()

	v, err := f.commands.Get.Execute(context.Background(), testUseCaseID, engine.ViewAdmin)
	require.NoError(t, err)
	assert.Equal(t, "CREATE_COMPLETE", v.Status)
	assert.Equal(t, rec.StackID, v.StackID)
	assert.Equal(t, "https://chat.example.com", v.Outputs["WebUrl"])
	assert.Equal(t, "anthropic.claude-v2", v.Config.String("LlmParams.BedrockLlmParams.ModelId"))
	assert.Equal(t, engine.ViewAdmin, v.View)
}

func TestGetBusinessViewStripsOperationalFields(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	f.prov.On("DescribeStack", mock.Anything, rec.StackID).Return(&engine.StackDetails{
		Status:  "UPDATE_COMPLETE",
		Outputs: map[string]string{"WebUrl": "https://chat.example.com"},
	}, nil).Once()

	v, err := f.commands.Get.Execute(context.Background(), testUseCaseID, engine.ViewBusiness)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE_COMPLETE", v.Status)
	assert.Empty(t, v.StackID)
	assert.Empty(t, v.Outputs)
	assert.Empty(t, v.CreatedBy)
	assert.True(t, v.Config.Bool("LlmParams.Streaming"))
	assert.False(t, v.Config.Has("LlmParams.BedrockLlmParams"))
}

func TestGetMissingConfig(t *testing.T) {
	f := newFixture()
	rec := f.deployed(testUseCaseID, testNow, textConfig())
	delete(f.configs.docs, rec.ConfigRecordKey)
	f.prov.On("DescribeStack", mock.Anything, rec.StackID).Return(&engine.StackDetails{Status: "CREATE_COMPLETE"}, nil)

	_, err := f.commands.Get.Execute(context.Background(), testUseCaseID, engine.ViewAdmin)
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestListJoinsPageWithStackAndConfig(t *testing.T) {
	f := newFixture()
	ids := []string{
		"aaaaaaaa-0000-4000-8000-000000000001",
		"bbbbbbbb-0000-4000-8000-000000000002",
		"cccccccc-0000-4000-8000-000000000003",
	}
	for i, id := range ids {
		rec := f.deployed(id, testNow.Add(time.Duration(i)*time.Minute), textConfig())
		f.prov.On("DescribeStack", mock.Anything, rec.StackID).
			Return(&engine.StackDetails{Status: "CREATE_COMPLETE"}, nil).Maybe()
	}

	res, err := f.commands.List.Execute(context.Background(), ListRequest{
		Query: listing.Query{Page: 1, PageSize: 2},
		View:  engine.ViewAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.NextPage)
	require.Len(t, res.UseCases, 2)
	assert.Equal(t, ids[2], res.UseCases[0].UseCaseID)
	assert.Equal(t, ids[1], res.UseCases[1].UseCaseID)

	res, err = f.commands.List.Execute(context.Background(), ListRequest{
		Query: listing.Query{Page: 2, PageSize: 2},
		View:  engine.ViewAdmin,
	})
	require.NoError(t, err)
	assert.Zero(t, res.NextPage)
	require.Len(t, res.UseCases, 1)
	assert.Equal(t, ids[0], res.UseCases[0].UseCaseID)
}

func TestListDegradesPerRow(t *testing.T) {
	f := newFixture()
	good := f.deployed("aaaaaaaa-0000-4000-8000-000000000001", testNow, textConfig())
	noStack := f.deployed("bbbbbbbb-0000-4000-8000-000000000002", testNow.Add(time.Minute), textConfig())
	noConfig := f.deployed("cccccccc-0000-4000-8000-000000000003", testNow.Add(2*time.Minute), textConfig())
	delete(f.configs.docs, noConfig.ConfigRecordKey)

	f.prov.On("DescribeStack", mock.Anything, good.StackID).Return(&engine.StackDetails{Status: "CREATE_COMPLETE"}, nil)
	f.prov.On("DescribeStack", mock.Anything, noStack.StackID).Return(nil, errors.New("throttled"))
	f.prov.On("DescribeStack", mock.Anything, noConfig.StackID).Return(&engine.StackDetails{Status: "CREATE_COMPLETE"}, nil)

	res, err := f.commands.List.Execute(context.Background(), ListRequest{View: engine.ViewAdmin})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.UseCases, 2)
	assert.Equal(t, noStack.UseCaseID, res.UseCases[0].UseCaseID)
	assert.Equal(t, engine.StackStatusUnknown, res.UseCases[0].Status)
	assert.Equal(t, good.UseCaseID, res.UseCases[1].UseCaseID)
	assert.Equal(t, "CREATE_COMPLETE", res.UseCases[1].Status)
}

func TestListScopeAndSearch(t *testing.T) {
	f := newFixture()
	mine := f.deployed("aaaaaaaa-0000-4000-8000-000000000001", testNow, textConfig())
	other := f.deployed("bbbbbbbb-0000-4000-8000-000000000002", testNow, textConfig())
	other.CreatedBy = "user-2"
	f.prov.On("DescribeStack", mock.Anything, mock.Anything).Return(&engine.StackDetails{Status: "CREATE_COMPLETE"}, nil)

	res, err := f.commands.List.Execute(context.Background(), ListRequest{
		Scope: engine.ListScope{CreatedBy: "user-1"},
		View:  engine.ViewBusiness,
	})
	require.NoError(t, err)
	require.Len(t, res.UseCases, 1)
	assert.Equal(t, mine.UseCaseID, res.UseCases[0].UseCaseID)

	res, err = f.commands.List.Execute(context.Background(), ListRequest{
		Query: listing.Query{Search: "BBBB"},
		View:  engine.ViewAdmin,
	})
	require.NoError(t, err)
	require.Len(t, res.UseCases, 1)
	assert.Equal(t, other.UseCaseID, res.UseCases[0].UseCaseID)
}

func TestAuthorize(t *testing.T) {
	f := newFixture()
	d, err := f.commands.Authorize(context.Background(), engine.Principal{Subject: "u"}, engine.OpCreate)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, engine.ViewAdmin, d.View)

	f.commands.env.deps.Authorizer = denyAll{}
	_, err = f.commands.Authorize(context.Background(), engine.Principal{Subject: "u"}, engine.OpCreate)
	require.Error(t, err)
	assert.True(t, engine.IsPermissionDenied(err))
}
