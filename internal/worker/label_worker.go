// Package worker applies label-printed events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"etiket/internal/amqp"
	"etiket/internal/sheets"
)

// LabelMirrorWorker writes each printed label to the mirror exactly once.
type LabelMirrorWorker struct {
	mirror sheets.LabelMirror
	logger *slog.Logger
}

func NewLabelMirrorWorker(mirror sheets.LabelMirror, logger *slog.Logger) *LabelMirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LabelMirrorWorker{mirror: mirror, logger: logger}
}

// HandleLabelPrinted processes one label-printed message. Redelivered
// events are acknowledged without writing. A returned error asks for the
// message to be requeued, so malformed messages are logged and dropped.
func (w *LabelMirrorWorker) HandleLabelPrinted(ctx context.Context, msg *amqp.LabelPrintedMessage) error {
	if msg == nil || msg.Entry.LabelIdentifier == "" {
		w.logger.ErrorContext(ctx, "Dropping label message without identifier")
		return nil
	}

	eventID := msg.EventID
	if eventID == "" {
		eventID = amqp.EventIDFor(msg.Entry)
	}
	logger := w.logger.With("label_id", msg.Entry.LabelIdentifier, "event_id", eventID)

	seen, err := w.mirror.HasEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("check mirror for event %s: %w", eventID, err)
	}
	if seen {
		logger.InfoContext(ctx, "Label already mirrored, skipping")
		return nil
	}

	ref, err := w.mirror.AppendLabel(ctx, eventID, msg.Entry)
	if err != nil {
		return fmt.Errorf("mirror label %s: %w", msg.Entry.LabelIdentifier, err)
	}

	logger.InfoContext(ctx, "Label mirrored", "row_ref", ref, "region", string(msg.Entry.ReceiverRegion))
	return nil
}
