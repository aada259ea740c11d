package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"etiket/internal/amqp"
	"etiket/internal/core"
	"etiket/internal/sheets"
)

// ReconcilerConfig holds configuration for the mirror reconciler
type ReconcilerConfig struct {
	// PollInterval is how often the history is compared with the mirror (default: 5m)
	PollInterval time.Duration

	// BatchSize is how many of the newest entries are checked per cycle (default: 20)
	BatchSize int
}

// DefaultReconcilerConfig returns sensible defaults
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		PollInterval: 5 * time.Minute,
		BatchSize:    20,
	}
}

// HistorySource is the shared history the reconciler reads from. Load must
// return what the backend holds now, not a list cached at startup.
type HistorySource interface {
	Load(ctx context.Context) []core.HistoryEntry
}

// MirrorReconciler appends labels that reached the history but never reached
// the spreadsheet, e.g. because the broker was down when they were printed.
type MirrorReconciler struct {
	history HistorySource
	mirror  sheets.LabelMirror
	config  ReconcilerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMirrorReconciler creates a new reconciler
func NewMirrorReconciler(history HistorySource, mirror sheets.LabelMirror, config ReconcilerConfig) *MirrorReconciler {
	return &MirrorReconciler{
		history: history,
		mirror:  mirror,
		config:  config,
	}
}

// Start begins the reconcile loop. Returns an error if already running.
func (r *MirrorReconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("mirror reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror reconciler started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)

	return nil
}

// Stop gracefully stops the reconciler and waits for completion.
func (r *MirrorReconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		slog.InfoContext(ctx, "Mirror reconciler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror reconciler stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

// IsRunning returns whether the reconciler is currently running
func (r *MirrorReconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *MirrorReconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	// Reconcile immediately on startup
	r.logCycle(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logCycle(ctx)
		}
	}
}

func (r *MirrorReconciler) logCycle(ctx context.Context) {
	appended, err := r.ReconcileOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Mirror reconcile failed", "error", err)
		return
	}
	if appended > 0 {
		slog.InfoContext(ctx, "Mirror reconcile appended missing labels", "count", appended)
	}
}

// ReconcileOnce checks the newest BatchSize entries and appends the ones the
// mirror does not know about. It returns how many rows were appended.
func (r *MirrorReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	entries := r.history.Load(ctx)
	if r.config.BatchSize > 0 && len(entries) > r.config.BatchSize {
		entries = entries[:r.config.BatchSize]
	}

	appended := 0
	// Oldest first so the spreadsheet keeps print order.
	for i := len(entries) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			return appended, ctx.Err()
		default:
		}

		e := entries[i]
		eventID := amqp.EventIDFor(e)
		known, err := r.mirror.HasEvent(ctx, eventID)
		if err != nil {
			return appended, fmt.Errorf("check label %s: %w", e.LabelIdentifier, err)
		}
		if known {
			continue
		}
		ref, err := r.mirror.AppendLabel(ctx, eventID, e)
		if err != nil {
			return appended, fmt.Errorf("append label %s: %w", e.LabelIdentifier, err)
		}
		slog.DebugContext(ctx, "Reconciled label", "label_id", e.LabelIdentifier, "sheets_ref", ref)
		appended++
	}
	return appended, nil
}
