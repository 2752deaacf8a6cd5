package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
	"github.com/openfroyo/ucm/pkg/validators"
)

type mockProvisioner struct {
	mock.Mock
}

func (m *mockProvisioner) CreateStack(ctx context.Context, in engine.StackInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockProvisioner) UpdateStack(ctx context.Context, in engine.StackUpdate) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockProvisioner) DeleteStack(ctx context.Context, stackID, roleARN string) error {
	return m.Called(ctx, stackID, roleARN).Error(0)
}

func (m *mockProvisioner) DescribeStack(ctx context.Context, stackID string) (*engine.StackDetails, error) {
	args := m.Called(ctx, stackID)
	d, _ := args.Get(0).(*engine.StackDetails)
	return d, args.Error(1)
}

// memRecords is an in-memory RecordStore with per-operation failure injection.
type memRecords struct {
	mu      sync.Mutex
	rows    map[string]*usecase.Record
	failPut error
	failUpd error
	failDel error
	failMrk error
}

func newMemRecords(recs ...*usecase.Record) *memRecords {
	m := &memRecords{rows: map[string]*usecase.Record{}}
	for _, r := range recs {
		m.rows[r.UseCaseID] = r
	}
	return m
}

func (m *memRecords) PutUseCase(_ context.Context, rec *usecase.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	cp := *rec
	m.rows[rec.UseCaseID] = &cp
	return nil
}

func (m *memRecords) GetUseCase(_ context.Context, id string) (*usecase.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, engine.NewNotFoundError("use case not found", nil).WithResource(id)
	}
	cp := *r
	return &cp, nil
}

func (m *memRecords) UpdateUseCase(_ context.Context, rec *usecase.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpd != nil {
		return m.failUpd
	}
	cp := *rec
	m.rows[rec.UseCaseID] = &cp
	return nil
}

func (m *memRecords) DeleteUseCase(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	if _, ok := m.rows[id]; !ok {
		return engine.NewNotFoundError("use case not found", nil)
	}
	delete(m.rows, id)
	return nil
}

func (m *memRecords) MarkUseCaseForDeletion(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMrk != nil {
		return m.failMrk
	}
	r, ok := m.rows[id]
	if !ok {
		return engine.NewNotFoundError("use case not found", nil)
	}
	r.ExpiresAt = &expiresAt
	return nil
}

func (m *memRecords) ListUseCases(_ context.Context, scope engine.ListScope) ([]*usecase.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*usecase.Record
	for _, r := range m.rows {
		if scope.CreatedBy != "" && r.CreatedBy != scope.CreatedBy {
			continue
		}
		if !scope.IncludeDeleted && r.Deleted() {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UseCaseID < out[j].UseCaseID })
	return out, nil
}

func (m *memRecords) get(id string) *usecase.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// memConfigs is an in-memory ConfigStore.
type memConfigs struct {
	mu      sync.Mutex
	docs    map[string]usecase.Config
	expires map[string]time.Time
	failPut error
	failDel error
}

func newMemConfigs() *memConfigs {
	return &memConfigs{docs: map[string]usecase.Config{}, expires: map[string]time.Time{}}
}

func (m *memConfigs) PutConfig(_ context.Context, key string, cfg usecase.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.docs[key] = cfg.Clone()
	return nil
}

func (m *memConfigs) GetConfig(_ context.Context, key string) (usecase.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.docs[key]
	if !ok {
		return nil, engine.NewNotFoundError("configuration not found", nil).WithResource(key)
	}
	return cfg.Clone(), nil
}

func (m *memConfigs) DeleteConfig(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	if _, ok := m.docs[key]; !ok {
		return engine.NewNotFoundError("configuration not found", nil)
	}
	delete(m.docs, key)
	return nil
}

func (m *memConfigs) MarkConfigForDeletion(_ context.Context, key string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[key]; !ok {
		return engine.NewNotFoundError("configuration not found", nil)
	}
	m.expires[key] = expiresAt
	return nil
}

func (m *memConfigs) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[key]
	return ok
}

func (m *memConfigs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type memSecrets struct {
	keys map[string]string
}

func (m *memSecrets) PutAPIKey(_ context.Context, id, key string) error {
	m.keys[id] = key
	return nil
}

func (m *memSecrets) DeleteAPIKey(_ context.Context, id string) error {
	if _, ok := m.keys[id]; !ok {
		return engine.NewNotFoundError("secret not found", nil)
	}
	delete(m.keys, id)
	return nil
}

// stubValidator accepts everything except configurations carrying "Reject".
// On update it merges over the stored document the way the real validators do.
type stubValidator struct {
	configs *memConfigs
}

func (s stubValidator) ValidateForCreate(_ context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	if uc.Config.Has("Reject") {
		return nil, engine.NewValidationError("rejected")
	}
	out := uc.Clone()
	if out.Config == nil {
		out.Config = usecase.Config{}
	}
	out.Config[usecase.KeyUseCaseType] = string(uc.Type)
	return out, nil
}

func (s stubValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldKey string) (*usecase.UseCase, error) {
	prev, err := s.configs.GetConfig(ctx, oldKey)
	if err != nil {
		return nil, err
	}
	out := uc.Clone()
	for k, v := range out.Config {
		prev[k] = v
	}
	out.Config = prev
	return s.ValidateForCreate(ctx, out)
}

// modelCatalog serves model defaults regardless of the requested key.
type modelCatalog []*usecase.ModelInfo

func (m modelCatalog) GetModelInfo(_ context.Context, kind, _ string) (*usecase.ModelInfo, error) {
	for _, info := range m {
		if info.UseCase == kind {
			return info, nil
		}
	}
	return nil, engine.NewNotFoundError("model info not found", nil)
}

type denyAll struct{}

func (denyAll) Authorize(context.Context, engine.Principal, engine.Operation) (engine.Decision, error) {
	return engine.Decision{View: engine.ViewBusiness}, nil
}

const (
	testUseCaseID = "abcdef12-0000-4000-8000-000000000001"
	testStackID   = "arn:aws:cloudformation:us-east-1:123456789012:stack/ucm-abcdef12/1"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	prov     *mockProvisioner
	records  *memRecords
	configs  *memConfigs
	secrets  *memSecrets
	commands *Commands
}

func newFixture(recs ...*usecase.Record) *fixture {
	f := &fixture{
		prov:    &mockProvisioner{},
		records: newMemRecords(recs...),
		configs: newMemConfigs(),
		secrets: &memSecrets{keys: map[string]string{}},
	}
	v := stubValidator{configs: f.configs}
	f.commands = New(Deps{
		Provisioner: f.prov,
		Records:     f.records,
		Configs:     f.configs,
		Secrets:     f.secrets,
		Validators: validators.Factory{
			usecase.TypeText:  v,
			usecase.TypeAgent: v,
		},
		Now: func() time.Time { return testNow },
	}, Settings{
		StackNamePrefix:  "ucm",
		TemplateBaseURL:  "https://templates.example.com/v1",
		ExecutionRoleArn: "arn:aws:iam::123456789012:role/ucm-deployer",
		ConfigTableName:  "UseCaseConfig",
		RetentionPeriod:  90 * 24 * time.Hour,
	})
	return f
}

// deployed seeds a provisioned use case and returns its record.
func (f *fixture) deployed(id string, created time.Time, cfg usecase.Config) *usecase.Record {
	key := usecase.NewConfigRecordKey(id[:8])
	rec := &usecase.Record{
		UseCaseID:       id,
		UseCaseType:     usecase.TypeText,
		Name:            "uc-" + id[:8],
		CreatedBy:       "user-1",
		StackID:         "stack-" + id[:8],
		ConfigRecordKey: key,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	f.records.rows[id] = rec
	f.configs.docs[key] = cfg
	return rec
}
