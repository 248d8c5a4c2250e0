package resolve

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rxindex/medinfo-cli/internal/model"
	"github.com/rxindex/medinfo-cli/pkg/openfda"
	"github.com/rxindex/medinfo-cli/pkg/rxnav"
)

// mockFDAClient implements openfda.Client for testing.
type mockFDAClient struct {
	mock.Mock
}

func (m *mockFDAClient) LabelBySetID(ctx context.Context, setID string) (*model.Label, error) {
	args := m.Called(ctx, setID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Label), args.Error(1)
}

func (m *mockFDAClient) LabelByRxCUI(ctx context.Context, rxcui string) (*model.Label, error) {
	args := m.Called(ctx, rxcui)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Label), args.Error(1)
}

func (m *mockFDAClient) LabelCandidates(ctx context.Context, name string, limit int) ([]*model.Label, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Label), args.Error(1)
}

func (m *mockFDAClient) NDCLookup(ctx context.Context, ndc string, limit int) ([]openfda.NDCResult, error) {
	args := m.Called(ctx, ndc, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openfda.NDCResult), args.Error(1)
}

func (m *mockFDAClient) EnforcementSearch(ctx context.Context, search string, limit int) ([]openfda.Enforcement, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openfda.Enforcement), args.Error(1)
}

func (m *mockFDAClient) ShortageSearch(ctx context.Context, search string, limit int) ([]openfda.Shortage, error) {
	args := m.Called(ctx, search, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openfda.Shortage), args.Error(1)
}

func (m *mockFDAClient) EventCount(ctx context.Context, search, countField string, limit int) ([]openfda.CountBucket, error) {
	args := m.Called(ctx, search, countField, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openfda.CountBucket), args.Error(1)
}

// mockRxNavClient implements rxnav.Client for testing.
type mockRxNavClient struct {
	mock.Mock
}

func (m *mockRxNavClient) ApproximateMatches(ctx context.Context, term string, maxEntries int) ([]rxnav.Candidate, error) {
	args := m.Called(ctx, term, maxEntries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rxnav.Candidate), args.Error(1)
}

func (m *mockRxNavClient) NameForRxCUI(ctx context.Context, rxcui string) (string, error) {
	args := m.Called(ctx, rxcui)
	return args.String(0), args.Error(1)
}

func (m *mockRxNavClient) ClassesByRxCUI(ctx context.Context, rxcui string) ([]rxnav.DrugClass, error) {
	args := m.Called(ctx, rxcui)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rxnav.DrugClass), args.Error(1)
}

func (m *mockRxNavClient) InteractionsByRxCUI(ctx context.Context, rxcui string) ([]rxnav.Interaction, error) {
	args := m.Called(ctx, rxcui)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rxnav.Interaction), args.Error(1)
}
