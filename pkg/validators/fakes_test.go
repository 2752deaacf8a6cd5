package validators

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/merge"
	"github.com/openfroyo/ucm/pkg/usecase"
)

type mockModels struct {
	mock.Mock
}

func (m *mockModels) GetModelInfo(ctx context.Context, kind, sortKey string) (*usecase.ModelInfo, error) {
	args := m.Called(ctx, kind, sortKey)
	info, _ := args.Get(0).(*usecase.ModelInfo)
	return info, args.Error(1)
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) UserPoolDomain(ctx context.Context, poolID string) (string, error) {
	args := m.Called(ctx, poolID)
	return args.String(0), args.Error(1)
}

type memConfigs map[string]usecase.Config

func (m memConfigs) GetConfig(_ context.Context, key string) (usecase.Config, error) {
	cfg, ok := m[key]
	if !ok {
		return nil, engine.NewNotFoundError("configuration not found", nil)
	}
	return cfg.Clone(), nil
}

// mergingConfigs records that the store-side merge path was taken.
type mergingConfigs struct {
	memConfigs
	calls int
}

func (m *mergingConfigs) GetMergedConfig(ctx context.Context, key string, patch usecase.Config, p *merge.Policy) (usecase.Config, error) {
	m.calls++
	prev, err := m.GetConfig(ctx, key)
	if err != nil {
		return nil, err
	}
	return usecase.Config(merge.Merge(prev, patch, p)), nil
}

func cfgJSON(t *testing.T, s string) usecase.Config {
	t.Helper()
	var c usecase.Config
	require.NoError(t, json.Unmarshal([]byte(s), &c))
	return c
}

const testUseCaseID = "11111111-2222-4333-8444-555555555555"

func newUseCase(typ usecase.Type, cfg usecase.Config) *usecase.UseCase {
	return usecase.New(testUseCaseID, typ, "test-use-case", "", "user-1", nil, cfg)
}
