package services

import (
	"context"
	"fmt"
	"log/slog"

	"etiket/internal/core"
	"etiket/internal/history"
)

// LabelPublisher announces committed labels to downstream consumers.
type LabelPublisher interface {
	PublishLabelPrinted(ctx context.Context, e core.HistoryEntry) error
}

// HistoryService orchestrates label history across the local store and AMQP.
type HistoryService struct {
	store     *history.Store
	publisher LabelPublisher
	closers   []func() error
}

var _ history.Repository = (*HistoryService)(nil)

// NewHistoryService wires the store with an optional publisher. closers run
// on Close in order, e.g. the SQLite handle and the AMQP connection.
func NewHistoryService(store *history.Store, publisher LabelPublisher, closers ...func() error) *HistoryService {
	return &HistoryService{
		store:     store,
		publisher: publisher,
		closers:   closers,
	}
}

// Load returns the history, newest first.
func (s *HistoryService) Load(ctx context.Context) []core.HistoryEntry {
	if s.store == nil {
		return nil
	}
	return s.store.Load(ctx)
}

// AppendAndSave persists the entry locally and publishes a label-printed
// event. Publishing is best effort: the entry is already saved.
func (s *HistoryService) AppendAndSave(ctx context.Context, e core.HistoryEntry) error {
	if s.store == nil {
		return fmt.Errorf("save label %s: history store not configured", e.LabelIdentifier)
	}
	if err := s.store.AppendAndSave(ctx, e); err != nil {
		return err
	}

	if err := s.publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish label printed message",
			"label_id", e.LabelIdentifier, "error", err)
	}
	return nil
}

// Clear wipes the whole history and reports how many entries it held.
func (s *HistoryService) Clear(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	return s.store.Clear(ctx)
}

func (s *HistoryService) publish(ctx context.Context, e core.HistoryEntry) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping label message")
		return nil
	}
	return s.publisher.PublishLabelPrinted(ctx, e)
}

// Close releases every configured resource and reports all failures.
func (s *HistoryService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close history service: %v", errs)
	}
	return nil
}
