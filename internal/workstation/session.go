// Package workstation holds the per-operator state of the daily export and
// label screen: the selected export date, the label draft, the label
// sequence and the print workflow.
package workstation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"etiket/internal/core"
	"etiket/internal/export"
	"etiket/internal/history"
)

// Options tune a Session. Zero values pick the defaults.
type Options struct {
	ExportPrefix string
	Now          func() time.Time
	Logger       *slog.Logger
	// OnTransition observes every state change.
	OnTransition func(from, to State)
	// FirstSequence is the sequence of the first label; values below 1 mean 1.
	FirstSequence int
	// Regions are the receiver region codes a label may carry. Empty means
	// any.
	Regions []string
}

// Session is one operator's workstation. Its sequence starts at 1, grows by
// one per committed print and is never reset or derived from the history.
type Session struct {
	mu       sync.Mutex
	id       string
	history  history.Repository
	opts     Options
	logger   *slog.Logger
	date     core.Day
	draft    core.LabelDraft
	sequence int
	state    State
}

// NewSession starts a session with today's date selected for both the
// export and the label.
func NewSession(id string, repo history.Repository, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = "gunluk-ozet"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FirstSequence < 1 {
		opts.FirstSequence = 1
	}
	today := core.DayOf(opts.Now())
	return &Session{
		id:       id,
		history:  repo,
		opts:     opts,
		logger:   logger.With("session_id", id),
		date:     today,
		draft:    core.LabelDraft{Date: today.ISO()},
		sequence: opts.FirstSequence,
		state:    StateEditing,
	}
}

func (s *Session) ID() string { return s.id }

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sequence returns the number the next printed label will carry.
func (s *Session) Sequence() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

// Date returns the selected export date, zero when none is selected.
func (s *Session) Date() core.Day {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// SetDate selects the export date. An empty value clears the selection.
func (s *Session) SetDate(iso string) error {
	day, err := core.ParseDay(iso)
	if errors.Is(err, core.ErrEmptyDate) {
		s.mu.Lock()
		s.date = core.Day{}
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("select date %q: %w", iso, err)
	}
	s.mu.Lock()
	s.date = day
	s.mu.Unlock()
	return nil
}

// Rows returns the summary rows of the selected date, nil without a date.
func (s *Session) Rows() []core.ExportRow {
	day := s.Date()
	if day.IsZero() {
		return nil
	}
	return export.BuildRows(day)
}

// Export encodes the rows of the selected date and hands the file to d.
// Encoding and delivery problems are logged and reported as ErrExportFailed.
func (s *Session) Export(ctx context.Context, format export.Format, d Downloader) (export.Artifact, error) {
	day := s.Date()
	if day.IsZero() {
		return export.Artifact{}, ErrNoDate
	}

	art, err := export.Encode(export.BuildRows(day), format, day, s.opts.ExportPrefix)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return export.Artifact{}, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Export encoding failed", "format", format, "date", day.ISO(), "error", err)
		return export.Artifact{}, ErrExportFailed
	}

	if err := d.Deliver(ctx, art); err != nil {
		s.logger.ErrorContext(ctx, "Export delivery failed", "filename", art.Filename, "error", err)
		return export.Artifact{}, ErrExportFailed
	}
	return art, nil
}

// UpdateDraft replaces the label draft and returns the session to editing.
func (s *Session) UpdateDraft(d core.LabelDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
	s.transition(StateEditing)
}

// Draft returns the current label draft.
func (s *Session) Draft() core.LabelDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Identifier is the identifier the draft would be printed with now.
func (s *Session) Identifier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.LabelIdentifier(s.draft.Trimmed().Date, s.sequence)
}

// Print validates the draft (required fields and region code), opens the print surface and commits the label
// to the history. A missing-field or presenter failure leaves the sequence
// and the history untouched. Once the surface is open the label counts as
// printed: the sequence advances even if saving the history fails, in which
// case the error wraps ErrHistoryNotSaved.
func (s *Session) Print(ctx context.Context, p PrintPresenter) (core.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transition(StateValidating)
	draft := s.draft.Trimmed()
	if err := draft.ValidateRegions(s.opts.Regions); err != nil {
		s.transition(StateInvalid)
		s.transition(StateEditing)
		return core.HistoryEntry{}, err
	}

	s.transition(StatePrinting)
	entry := draft.Entry(core.LabelIdentifier(draft.Date, s.sequence), s.opts.Now())
	doc := PrintDocument{Entry: entry, DateLabel: draftDateLabel(draft.Date)}
	if err := p.Present(ctx, doc); err != nil {
		s.transition(StateEditing)
		return core.HistoryEntry{}, fmt.Errorf("open print window for %s: %w", entry.LabelIdentifier, err)
	}

	saveErr := s.history.AppendAndSave(ctx, entry)
	s.sequence++
	s.transition(StateCommitted)

	if saveErr != nil {
		s.logger.ErrorContext(ctx, "Label history save failed", "label_id", entry.LabelIdentifier, "error", saveErr)
		return entry, fmt.Errorf("%w: %v", ErrHistoryNotSaved, saveErr)
	}
	return entry, nil
}

// History returns the shared history narrowed by search term and region.
func (s *Session) History(ctx context.Context, search, region string) []core.HistoryEntry {
	return core.FilterHistory(s.history.Load(ctx), search, region)
}

// transition moves to next. Callers hold s.mu.
func (s *Session) transition(next State) {
	prev := s.state
	s.state = next
	if prev == next {
		return
	}
	s.logger.Debug("Workstation state changed", "from", prev.String(), "to", next.String())
	if s.opts.OnTransition != nil {
		s.opts.OnTransition(prev, next)
	}
}

func draftDateLabel(iso string) string {
	day, err := core.ParseDay(iso)
	if err != nil {
		return iso
	}
	return day.Label()
}
