package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestMergeIdempotent(t *testing.T) {
	cfg := doc(t, `{
		"UseCaseName": "support",
		"LlmParams": {"ModelProvider": "Bedrock", "Temperature": 0.5,
			"ModelParams": {"top_p": {"Value": "0.9", "Type": "float"}},
			"BedrockLlmParams": {"ModelId": "amazon.nova-pro-v1:0"}},
		"AgentBuilderParams": {"Tools": [{"ToolId": "a"}, {"ToolId": "b"}]}
	}`)

	assert.Equal(t, cfg, Merge(cfg, cfg, Default()))
}

func TestMergeReplacesArraysWholesale(t *testing.T) {
	prev := doc(t, `{"AgentBuilderParams": {"Tools": [{"ToolId": "A"}, {"ToolId": "B"}], "SystemPrompt": "x"}}`)
	next := doc(t, `{"AgentBuilderParams": {"Tools": [{"ToolId": "C"}]}}`)

	got := Merge(prev, next, Default())

	assert.Equal(t, doc(t, `{"AgentBuilderParams": {"Tools": [{"ToolId": "C"}], "SystemPrompt": "x"}}`), got)
}

func TestMergePreservesOmittedFields(t *testing.T) {
	prev := doc(t, `{"LlmParams": {"ModelProvider": "Bedrock", "Temperature": 0.5}}`)
	next := doc(t, `{"LlmParams": {"Temperature": 0.8}}`)

	got := Merge(prev, next, Default())

	assert.Equal(t, doc(t, `{"LlmParams": {"ModelProvider": "Bedrock", "Temperature": 0.8}}`), got)
}

func TestMergeReplacePathsAcceptEmptyObject(t *testing.T) {
	prev := doc(t, `{"LlmParams": {"ModelParams": {"top_k": {"Value": "5", "Type": "integer"}}, "Streaming": true}}`)

	cleared := Merge(prev, doc(t, `{"LlmParams": {"ModelParams": {}}}`), Default())
	assert.Equal(t, map[string]any{}, cleared["LlmParams"].(map[string]any)["ModelParams"])

	replaced := Merge(prev, doc(t, `{"LlmParams": {"ModelParams": {"top_p": {"Value": "1", "Type": "float"}}}}`), Default())
	assert.Equal(t, doc(t, `{"top_p": {"Value": "1", "Type": "float"}}`), replaced["LlmParams"].(map[string]any)["ModelParams"])

	omitted := Merge(prev, doc(t, `{"LlmParams": {"Streaming": false}}`), Default())
	assert.Equal(t, prev["LlmParams"].(map[string]any)["ModelParams"], omitted["LlmParams"].(map[string]any)["ModelParams"])
}

func TestMergeWithoutReplaceRuleMergesObjects(t *testing.T) {
	prev := doc(t, `{"LlmParams": {"ModelParams": {"a": 1}}}`)
	next := doc(t, `{"LlmParams": {"ModelParams": {"b": 2}}}`)

	got := Merge(prev, next, nil)

	assert.Equal(t, doc(t, `{"LlmParams": {"ModelParams": {"a": 1, "b": 2}}}`), got)
}

func TestMergeNullRemovesKey(t *testing.T) {
	prev := doc(t, `{"KnowledgeBaseParams": {"NumberOfDocs": 3, "ScoreThreshold": 0.4}}`)
	next := doc(t, `{"KnowledgeBaseParams": {"ScoreThreshold": null}}`)

	got := Merge(prev, next, Default())

	assert.Equal(t, doc(t, `{"KnowledgeBaseParams": {"NumberOfDocs": 3}}`), got)
}

func TestMergeExclusiveModelIdentity(t *testing.T) {
	prev := doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m1", "ModelArn": "arn:aws:bedrock:us-east-1::foundation-model/m1"}}}`)

	t.Run("inference profile wins over model id and its arn", func(t *testing.T) {
		got := Merge(prev, doc(t, `{"LlmParams": {"BedrockLlmParams": {"InferenceProfileId": "us.profile"}}}`), Default())
		assert.Equal(t, doc(t, `{"LlmParams": {"BedrockLlmParams": {"InferenceProfileId": "us.profile"}}}`), got)
	})

	t.Run("model id wins over inference profile", func(t *testing.T) {
		old := doc(t, `{"LlmParams": {"BedrockLlmParams": {"InferenceProfileId": "us.profile", "GuardrailVersion": "1"}}}`)
		got := Merge(old, doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m2"}}}`), Default())
		assert.Equal(t, doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m2", "GuardrailVersion": "1"}}}`), got)
	})

	t.Run("both requested explicitly are left in place", func(t *testing.T) {
		got := Merge(prev, doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m1", "InferenceProfileId": "p"}}}`), Default())
		params := got["LlmParams"].(map[string]any)["BedrockLlmParams"].(map[string]any)
		assert.Contains(t, params, "ModelId")
		assert.Contains(t, params, "InferenceProfileId")
	})
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	prev := doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m1"}}}`)
	next := doc(t, `{"LlmParams": {"BedrockLlmParams": {"InferenceProfileId": "p"}}}`)

	_ = Merge(prev, next, Default())

	assert.Equal(t, doc(t, `{"LlmParams": {"BedrockLlmParams": {"ModelId": "m1"}}}`), prev)
	assert.Equal(t, doc(t, `{"LlmParams": {"BedrockLlmParams": {"InferenceProfileId": "p"}}}`), next)
}

func TestPolicyWildcardAndExtend(t *testing.T) {
	p := NewPolicy().Replace("Targets.*.Headers")
	ext := Default().Extend(p)

	assert.Equal(t, ActionReplace, ext.action([]string{"Targets", "t1", "Headers"}))
	assert.Equal(t, ActionReplace, ext.action([]string{"LlmParams", "ModelParams"}))
	assert.Equal(t, ActionMerge, ext.action([]string{"Targets", "t1"}))
	assert.Len(t, ext.Exclusive, 1)
}
