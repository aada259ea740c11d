package printing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"etiket/internal/cache"
	"etiket/internal/workstation"
)

// ErrPopupBlocked is returned when the browser refused to open the window.
var ErrPopupBlocked = workstation.ErrPopupBlocked

// Window is a rendered print document waiting to be fetched once.
type Window struct {
	ID         string
	Identifier string
	HTML       []byte
	CreatedAt  time.Time
}

// Registry keeps rendered print windows until the browser fetches them.
// A window is handed out once and is not addressable afterwards.
type Registry struct {
	renderer *Renderer
	windows  *cache.LRUCache[Window]
	logger   *slog.Logger
}

func NewRegistry(renderer *Renderer, maxWindows int, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		renderer: renderer,
		windows:  cache.NewLRUCache[Window](maxWindows, ttl),
		logger:   logger,
	}
}

// Presenter returns a presenter for one print request. popupBlocked is what
// the browser reported when it tried to pre-open the window.
func (r *Registry) Presenter(popupBlocked bool) *WindowPresenter {
	return &WindowPresenter{registry: r, blocked: popupBlocked}
}

// Open hands out the window with id and forgets it.
func (r *Registry) Open(id string) (Window, bool) {
	return r.windows.Take(id)
}

// Windows exposes the window cache for expiry sweeps.
func (r *Registry) Windows() cache.Cleaner {
	return r.windows
}

// WindowPresenter implements workstation.PrintPresenter for the browser.
type WindowPresenter struct {
	registry *Registry
	blocked  bool
	opened   *Window
}

var _ workstation.PrintPresenter = (*WindowPresenter)(nil)

func (p *WindowPresenter) Present(ctx context.Context, doc workstation.PrintDocument) error {
	if p.blocked {
		p.registry.logger.WarnContext(ctx, "Print window blocked by the browser", "label_id", doc.Entry.LabelIdentifier)
		return ErrPopupBlocked
	}

	html, err := p.registry.renderer.Document(doc)
	if err != nil {
		return err
	}

	w := Window{
		ID:         uuid.NewString(),
		Identifier: doc.Entry.LabelIdentifier,
		HTML:       html,
		CreatedAt:  time.Now(),
	}
	p.registry.windows.Set(w.ID, w)
	p.opened = &w
	return nil
}

// Opened returns the window registered by Present, if any.
func (p *WindowPresenter) Opened() (Window, bool) {
	if p.opened == nil {
		return Window{}, false
	}
	return *p.opened, true
}
