package sheets

import (
	"context"

	"etiket/internal/core"
)

// Ports for the spreadsheet mirror of printed labels.
type (
	LabelWriter interface {
		// AppendLabel writes one printed label. eventID identifies the print
		// event so redelivered events can be recognised.
		AppendLabel(ctx context.Context, eventID string, e core.HistoryEntry) (rowRef string, err error)
	}

	LabelReader interface {
		// HasEvent reports whether the event was already written.
		HasEvent(ctx context.Context, eventID string) (bool, error)
		// ListLabels returns mirrored labels in sheet order (oldest first).
		ListLabels(ctx context.Context) ([]core.HistoryEntry, error)
	}

	LabelMirror interface {
		LabelWriter
		LabelReader
	}
)
