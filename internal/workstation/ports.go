package workstation

import (
	"context"
	"errors"

	"etiket/internal/core"
	"etiket/internal/export"
)

var (
	ErrNoDate          = errors.New("no export date selected")
	ErrExportFailed    = errors.New("export failed")
	ErrPopupBlocked    = errors.New("print window was blocked by the browser")
	ErrHistoryNotSaved = errors.New("label printed but history could not be saved")
)

// Downloader hands a finished export file to the operator.
type Downloader interface {
	Deliver(ctx context.Context, a export.Artifact) error
}

// PrintDocument is everything a print surface needs to render one label.
type PrintDocument struct {
	Entry     core.HistoryEntry
	DateLabel string
}

// PrintPresenter opens the print surface for a document. It returns
// ErrPopupBlocked when no window could be opened.
type PrintPresenter interface {
	Present(ctx context.Context, doc PrintDocument) error
}
