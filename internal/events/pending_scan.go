package events

import (
	"context"
	"time"

	"acquisition-pdf-pipeline/internal/domain"
)

type RetryEvent struct {
	SubmissionID int64
	Status       domain.SubmissionStatus
}

type RetryEventSource interface {
	Run(ctx context.Context, handler func(context.Context, RetryEvent) error) error
}

type StalledLister interface {
	ListStalled(ctx context.Context, olderThan time.Time) ([]domain.Submission, error)
}

// StalledScanSource periodically lists submissions that have been sitting in
// pending without being processed and emits a retry event for each. Paired
// with workflow-id deduplication on the dispatch side, a submission whose
// pipeline is merely slow is re-dispatched harmlessly.
type StalledScanSource struct {
	store    StalledLister
	interval time.Duration
	minAge   time.Duration
}

func NewStalledScanSource(store StalledLister, interval time.Duration, minAge time.Duration) *StalledScanSource {
	return &StalledScanSource{store: store, interval: interval, minAge: minAge}
}

func (s *StalledScanSource) Run(ctx context.Context, handler func(context.Context, RetryEvent) error) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.scanOnce(ctx, handler); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *StalledScanSource) scanOnce(ctx context.Context, handler func(context.Context, RetryEvent) error) error {
	cutoff := time.Now().Add(-s.minAge)
	subs, err := s.store.ListStalled(ctx, cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	for _, sub := range subs {
		event := RetryEvent{SubmissionID: sub.ID, Status: sub.Status}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
