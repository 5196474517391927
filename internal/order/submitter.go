package order

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
)

var errNoOrderID = errors.New("backend returned no order id")

// OrderCreator sends a draft to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error)
}

// Submitter guards a single order submission at a time. A second Submit
// while one is in flight fails fast with ErrSubmissionInFlight.
type Submitter struct {
	mu      sync.Mutex
	status  domain.SubmissionStatus
	lastErr error
	creator OrderCreator
	log     *zap.Logger
}

func NewSubmitter(creator OrderCreator, log *zap.Logger) *Submitter {
	return &Submitter{
		status:  domain.SubmissionIdle,
		creator: creator,
		log:     logger.OrNop(log),
	}
}

// Submit sends draft. On failure the returned error wraps both
// ErrSubmissionFailed and the transport error.
func (s *Submitter) Submit(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
	if err := s.transition(domain.SubmissionSubmitting); err != nil {
		return nil, err
	}

	log := logger.WithTrace(ctx, s.log).With(
		zap.String("store_id", draft.StoreID),
		zap.Int("items", len(draft.Items)),
	)

	res, err := s.creator.CreateOrder(ctx, draft)
	if err == nil && (res == nil || res.OrderID == "") {
		err = errNoOrderID
	}
	if err != nil {
		s.finish(domain.SubmissionFailed, err)
		log.Warn("order submission failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	s.finish(domain.SubmissionSucceeded, nil)
	log.Info("order submitted", zap.String("order_id", res.OrderID))
	return res, nil
}

func (s *Submitter) transition(to domain.SubmissionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.InFlight() && to == domain.SubmissionSubmitting {
		return ErrSubmissionInFlight
	}
	if !domain.CanTransitionTo(s.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, to)
	}
	s.status = to
	return nil
}

func (s *Submitter) finish(to domain.SubmissionStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = to
	s.lastErr = err
}

func (s *Submitter) Status() domain.SubmissionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError is the error of the most recent failed submission, nil otherwise.
func (s *Submitter) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
