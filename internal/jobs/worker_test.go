package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/foliolabs/folio/internal/domain"
)

// MockProcessor is a mock implementation of Processor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSeeder is a mock implementation of KnowledgeSeeder
type MockSeeder struct {
	mock.Mock
}

func (m *MockSeeder) SeedAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockSeeder) Fingerprints(ctx context.Context) (map[domain.Category]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Category]string), args.Error(1)
}

func prints(about string) map[domain.Category]string {
	p := make(map[domain.Category]string)
	for _, cat := range domain.Categories() {
		p[cat] = "v1"
	}
	p[domain.CategoryAbout] = about
	return p
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockProcessor)
	mockProcessor.On("Process", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify Process was called at least once
	mockProcessor.AssertCalled(t, "Process", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockProcessor)
	mockProcessor.On("Process", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify Process was called
	mockProcessor.AssertCalled(t, "Process", mock.Anything)
}

// TestReseedProcessor_FirstPollRecordsBaseline tests that the first poll never reseeds
func TestReseedProcessor_FirstPollRecordsBaseline(t *testing.T) {
	mockSeeder := new(MockSeeder)
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v1"), nil)

	processor := NewReseedProcessor(mockSeeder)
	err := processor.Process(context.Background())

	assert.NoError(t, err)
	mockSeeder.AssertNotCalled(t, "SeedAll", mock.Anything)
}

// TestReseedProcessor_NoChange tests that unchanged documents do not reseed
func TestReseedProcessor_NoChange(t *testing.T) {
	mockSeeder := new(MockSeeder)
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v1"), nil)

	processor := NewReseedProcessor(mockSeeder)
	assert.NoError(t, processor.Process(context.Background()))
	assert.NoError(t, processor.Process(context.Background()))

	mockSeeder.AssertNotCalled(t, "SeedAll", mock.Anything)
}

// TestReseedProcessor_ChangeTriggersReseed tests a document edit triggers a reseed
func TestReseedProcessor_ChangeTriggersReseed(t *testing.T) {
	mockSeeder := new(MockSeeder)
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v1"), nil).Once()
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v2"), nil)
	mockSeeder.On("SeedAll", mock.Anything).Return(12, nil).Once()

	processor := NewReseedProcessor(mockSeeder)
	assert.NoError(t, processor.Process(context.Background()))
	assert.NoError(t, processor.Process(context.Background()))
	// Fingerprints are stable again after the reseed
	assert.NoError(t, processor.Process(context.Background()))

	mockSeeder.AssertExpectations(t)
}

// TestReseedProcessor_SeedFailureKeepsBaseline tests a failed reseed is retried next poll
func TestReseedProcessor_SeedFailureKeepsBaseline(t *testing.T) {
	mockSeeder := new(MockSeeder)
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v1"), nil).Once()
	mockSeeder.On("Fingerprints", mock.Anything).Return(prints("v2"), nil)
	mockSeeder.On("SeedAll", mock.Anything).Return(0, errors.New("embedding provider down")).Once()
	mockSeeder.On("SeedAll", mock.Anything).Return(12, nil).Once()

	processor := NewReseedProcessor(mockSeeder)
	assert.NoError(t, processor.Process(context.Background()))

	err := processor.Process(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reseed knowledge")

	// Next poll retries against the unchanged baseline
	assert.NoError(t, processor.Process(context.Background()))
	mockSeeder.AssertExpectations(t)
}

// TestReseedProcessor_FingerprintError tests fingerprint failures surface
func TestReseedProcessor_FingerprintError(t *testing.T) {
	mockSeeder := new(MockSeeder)
	mockSeeder.On("Fingerprints", mock.Anything).Return(nil, errors.New("stat failed"))

	processor := NewReseedProcessor(mockSeeder)
	err := processor.Process(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fingerprint knowledge documents")
	mockSeeder.AssertNotCalled(t, "SeedAll", mock.Anything)
}
