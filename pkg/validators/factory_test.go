package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

func TestFactoryCoversEveryType(t *testing.T) {
	f := NewFactory(Deps{})
	for _, typ := range usecase.AllTypes {
		v, err := f.For(typ)
		require.NoError(t, err, typ)
		assert.NotNil(t, v)
	}
	assert.Len(t, f, len(usecase.AllTypes))

	_, err := f.For("Chatbot")
	assert.True(t, engine.IsValidation(err))
	assert.Equal(t, "Unsupported use case type: Chatbot", engine.UserMessage(err))
}

func TestValidatorRejectsForeignType(t *testing.T) {
	v := NewWorkflowValidator(Deps{})
	_, err := v.ValidateForCreate(context.Background(), newUseCase(usecase.TypeText, usecase.Config{}))
	assert.Equal(t, "Use case type Text cannot be validated as Workflow", engine.UserMessage(err))
}
