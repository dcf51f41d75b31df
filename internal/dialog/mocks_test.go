package dialog_test

import (
	"context"
	"sync"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"
)

// --- Mocks ---

type mockQueries struct {
	mu          sync.Mutex
	data        map[string]any
	readErr     map[string]error
	invalidated []string
}

func newMockQueries() *mockQueries {
	return &mockQueries{
		data:    make(map[string]any),
		readErr: make(map[string]error),
	}
}

func (m *mockQueries) Read(_ context.Context, key string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr[key]; err != nil {
		return nil, err
	}
	return m.data[key], nil
}

func (m *mockQueries) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, key)
}

func (m *mockQueries) invalidations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.invalidated...)
}

type depositCall struct {
	accountID string
	req       domain.DepositRequest
}

type mockDepositCreator struct {
	mu      sync.Mutex
	err     error
	block   chan struct{} // if set, CreateDeposit waits until closed
	calls   []depositCall
	started chan struct{} // signalled when a call begins
}

func (m *mockDepositCreator) CreateDeposit(_ context.Context, accountID string, req *domain.DepositRequest) error {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.calls = append(m.calls, depositCall{accountID: accountID, req: *req})
	m.mu.Unlock()
	return m.err
}

func (m *mockDepositCreator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockProvisioner struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	calls   []domain.ProvisioningRequest
	started chan struct{}
}

func (m *mockProvisioner) CreateAccount(_ context.Context, req *domain.ProvisioningRequest) error {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.calls = append(m.calls, *req)
	m.mu.Unlock()
	return m.err
}

func (m *mockProvisioner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSearcher struct {
	mu      sync.Mutex
	results []domain.DirectoryUser
	err     error
	block   chan struct{} // if set, SearchUsers waits until closed
	started chan struct{} // signalled when a fetch begins
	queries []string
}

func (m *mockSearcher) SearchUsers(_ context.Context, search string, _ int) ([]domain.DirectoryUser, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, search)
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockSearcher) searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

type mockNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (m *mockNotifier) Success(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes = append(m.successes, msg)
}

func (m *mockNotifier) Error(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockNotifier) lastSuccess() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.successes) == 0 {
		return ""
	}
	return m.successes[len(m.successes)-1]
}

func (m *mockNotifier) lastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errors) == 0 {
		return ""
	}
	return m.errors[len(m.errors)-1]
}

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
