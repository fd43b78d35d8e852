package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aristath/loonie/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrStoreUnavailable is returned by FailingStore for every operation.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// MockRateProvider is a mock implementation of domain.RateProvider for testing
type MockRateProvider struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	err   error
	panic interface{}
	calls int
}

// NewMockRateProvider creates a mock that always returns rate
func NewMockRateProvider(rate decimal.Decimal) *MockRateProvider {
	return &MockRateProvider{rate: rate}
}

// SetError makes subsequent calls fail with err
func (m *MockRateProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetPanic makes subsequent calls panic with v
func (m *MockRateProvider) SetPanic(v interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panic = v
}

// GetRate returns the configured rate
func (m *MockRateProvider) GetRate(ctx context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	m.calls++
	p, rate, err := m.panic, m.rate, m.err
	m.mu.Unlock()

	if p != nil {
		panic(p)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// Calls returns how many times GetRate was invoked
func (m *MockRateProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockLocationResolver is a mock implementation of domain.LocationResolver for testing
type MockLocationResolver struct {
	mu     sync.Mutex
	result domain.LocationResult
	err    error
	calls  int
}

// NewMockLocationResolver creates a mock that resolves to countryCode via method
func NewMockLocationResolver(countryCode string, method domain.DetectionMethod) *MockLocationResolver {
	return &MockLocationResolver{
		result: domain.NewLocationResult(countryCode, method, time.Now()),
	}
}

// SetError makes subsequent calls fail with err
func (m *MockLocationResolver) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Resolve returns the configured result
func (m *MockLocationResolver) Resolve(ctx context.Context) (domain.LocationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.LocationResult{}, m.err
	}
	return m.result, nil
}

// Calls returns how many times Resolve was invoked
func (m *MockLocationResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockCoordinateSource is a mock implementation of domain.CoordinateSource for testing
type MockCoordinateSource struct {
	Coordinates domain.Coordinates
	Err         error
	// Block makes Acquire wait for ctx to finish, simulating a GPS that never answers
	Block bool
}

// Acquire returns the configured coordinates or error
func (m *MockCoordinateSource) Acquire(ctx context.Context) (domain.Coordinates, error) {
	if m.Block {
		<-ctx.Done()
		return domain.Coordinates{}, &domain.PermissionError{Reason: "timeout", Err: ctx.Err()}
	}
	if m.Err != nil {
		return domain.Coordinates{}, m.Err
	}
	return m.Coordinates, nil
}

// FailingStore is a cache.Store whose every operation fails
type FailingStore struct{}

func (FailingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrStoreUnavailable
}

func (FailingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return ErrStoreUnavailable
}

func (FailingStore) Delete(ctx context.Context, key string) error {
	return ErrStoreUnavailable
}
