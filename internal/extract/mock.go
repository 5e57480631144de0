package extract

import (
	"context"
	"sync"

	"github.com/fundmatch/lendmatch/internal/model"
)

// MockExtractor is a test implementation of the Extractor interface. It
// returns a canned candidate set and records every call.
type MockExtractor struct {
	Set   *model.CandidateSet
	Err   error
	calls []MockCall
	mu    sync.Mutex
}

// MockCall records details of an extraction request.
type MockCall struct {
	Document []byte
	Known    []model.ParameterDefinition
}

// NewMockExtractor creates a mock that returns the given candidate set.
func NewMockExtractor(set *model.CandidateSet) *MockExtractor {
	return &MockExtractor{Set: set}
}

// ExtractRules returns the configured candidate set or error.
func (m *MockExtractor) ExtractRules(_ context.Context, document []byte, known []model.ParameterDefinition) (*model.CandidateSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Document: document, Known: known})
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Set, nil
}

// Calls returns the recorded extraction requests.
func (m *MockExtractor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
