package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	mu      sync.Mutex
	calls   int
	result  *domain.OrderResult
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeCreator) CreateOrder(ctx context.Context, _ *domain.OrderDraft) (*domain.OrderResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeCreator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testDraft() *domain.OrderDraft {
	return &domain.OrderDraft{
		TelegramID: "U1",
		StoreID:    "S1",
		Items:      []domain.OrderItem{{ID: "P1", Qty: 2, Price: 100}},
		Payment:    domain.PaymentSelection{Method: domain.PaymentCash},
	}
}

func TestSubmit_Success(t *testing.T) {
	creator := &fakeCreator{result: &domain.OrderResult{OrderID: "ORD-1"}}
	s := NewSubmitter(creator, nil)
	assert.Equal(t, domain.SubmissionIdle, s.Status())

	res, err := s.Submit(context.Background(), testDraft())

	require.NoError(t, err)
	assert.Equal(t, "ORD-1", res.OrderID)
	assert.Equal(t, domain.SubmissionSucceeded, s.Status())
	assert.Nil(t, s.LastError())
}

func TestSubmit_FailureIsRetryable(t *testing.T) {
	backendErr := errors.New("422 Unprocessable Entity")
	creator := &fakeCreator{err: backendErr}
	s := NewSubmitter(creator, nil)

	_, err := s.Submit(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorIs(t, err, backendErr)
	assert.Equal(t, domain.SubmissionFailed, s.Status())
	assert.Equal(t, backendErr, s.LastError())

	creator.err = nil
	creator.result = &domain.OrderResult{OrderID: "ORD-2"}
	res, err := s.Submit(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", res.OrderID)
	assert.Equal(t, 2, creator.Calls())
}

func TestSubmit_EmptyOrderIDIsFailure(t *testing.T) {
	s := NewSubmitter(&fakeCreator{result: &domain.OrderResult{}}, nil)

	_, err := s.Submit(context.Background(), testDraft())

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, domain.SubmissionFailed, s.Status())
}

func TestSubmit_RejectsOverlappingSubmission(t *testing.T) {
	creator := &fakeCreator{
		result:  &domain.OrderResult{OrderID: "ORD-1"},
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	s := NewSubmitter(creator, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), testDraft())
		done <- err
	}()

	select {
	case <-creator.entered:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the backend")
	}
	assert.Equal(t, domain.SubmissionSubmitting, s.Status())

	_, err := s.Submit(context.Background(), testDraft())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(creator.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, creator.Calls())
}
