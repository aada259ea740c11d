package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"etiket/internal/config"
	"etiket/internal/core"
	"etiket/internal/export"
	applog "etiket/internal/log"
	"etiket/internal/printing"
	"etiket/internal/workstation"
)

const (
	msgInvalidDate     = "Geçersiz tarih."
	msgNoDate          = "Lütfen dışa aktarmak için bir tarih seçin."
	msgUnsupported     = "Desteklenmeyen dosya biçimi."
	msgExportFailed    = "Dışa aktarma başarısız oldu. Lütfen tekrar deneyin."
	msgPopupBlocked    = "Yazdırma penceresi açılamadı. Lütfen bu site için açılır pencerelere izin verin."
	msgPrintFailed     = "Etiket yazdırılamadı. Lütfen tekrar deneyin."
	msgHistoryNotSaved = "Etiket yazdırıldı ancak geçmişe kaydedilemedi."
	msgWindowNotFound  = "Yazdırma penceresi bulunamadı veya süresi doldu."
	msgTemplateMissing = "Sayfa oluşturulamadı."
)

type exportView struct {
	Date string
	Rows []core.ExportRow
}

type historyView struct {
	Entries []core.HistoryEntry
	Total   int
}

type indexView struct {
	Profile config.LabelProfile
	Date    string
	Export  exportView
	Draft   core.LabelDraft
	Regions []string
	Preview printing.LabelView
	History historyView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	sess := s.session(w, r)
	profile := s.deps.Renderer.Profile()
	draft := sess.Draft()
	all := s.deps.History.Load(ctx)

	data := indexView{
		Profile: profile,
		Date:    sess.Date().ISO(),
		Export:  exportView{Date: sess.Date().ISO(), Rows: sess.Rows()},
		Draft:   draft,
		Regions: profile.Regions,
		Preview: s.deps.Renderer.DraftView(draft, sess.Identifier()),
		History: historyView{Entries: all, Total: len(all)},
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Index template execution failed", "error", err)
		http.Error(w, msgTemplateMissing, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleExportPreview selects the export date and renders its rows.
func (s *Server) handleExportPreview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sess := s.session(w, r)

	if err := sess.SetDate(sanitizeInput(r.URL.Query().Get("date"))); err != nil {
		BadRequestError(msgInvalidDate).TriggerErrorNotification(msgInvalidDate).Write(w)
		return
	}

	s.render(w, r, NewHTMXResponse(), "export_rows.html", exportView{Date: sess.Date().ISO(), Rows: sess.Rows()})
}

// handleExport streams the export file of the selected date. Errors are
// plain text so the page can show them as a notification.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess := s.session(w, r)

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, msgUnsupported, http.StatusBadRequest)
		return
	}

	dl := &httpDownloader{w: w}
	art, err := sess.Export(ctx, format, dl)
	switch {
	case err == nil:
		s.events.LogExport(ctx, sess.ID(), sess.Date().ISO(), string(format), len(art.Body))
	case dl.started:
		// Headers are gone; the browser sees a truncated download.
	case errors.Is(err, workstation.ErrNoDate):
		http.Error(w, msgNoDate, http.StatusBadRequest)
	case errors.Is(err, export.ErrUnsupportedFormat):
		http.Error(w, msgUnsupported, http.StatusBadRequest)
	default:
		s.events.LogError(ctx, "Export failed", err, applog.ComponentExport, applog.OpExport,
			applog.NewFields().WithSession(sess.ID()).WithExport(sess.Date().ISO(), string(format)))
		http.Error(w, msgExportFailed, http.StatusInternalServerError)
	}
}

// handleLabelPreview stores the form as the session's draft and renders the
// label with the identifier it would print with.
func (s *Server) handleLabelPreview(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	sess := s.session(w, r)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Geçersiz istek").Write(w)
		return
	}
	sess.UpdateDraft(p.LabelDraft())

	var buf bytes.Buffer
	if err := s.deps.Renderer.Preview(&buf, s.deps.Renderer.DraftView(sess.Draft(), sess.Identifier())); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Label preview rendering failed", "error", err)
		InternalServerError(msgTemplateMissing).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// handlePrint validates the draft, registers the print window and commits
// the label. The page pre-opened a window and reports it in "popup".
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess := s.session(w, r)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Geçersiz istek").Write(w)
		return
	}
	sess.UpdateDraft(p.LabelDraft())

	presenter := s.deps.Windows.Presenter(!p.PopupOpened())
	entry, err := sess.Print(ctx, presenter)

	var missing *core.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		UnprocessableEntityError(missing.Error()).TriggerErrorNotification(missing.Error()).Write(w)
		return
	case errors.Is(err, workstation.ErrPopupBlocked):
		ConflictError(msgPopupBlocked).TriggerWarningNotification(msgPopupBlocked).Write(w)
		return
	case err != nil && !errors.Is(err, workstation.ErrHistoryNotSaved):
		s.events.LogError(ctx, "Label print failed", err, applog.ComponentWorkstation, applog.OpPrint,
			applog.NewFields().WithSession(sess.ID()))
		InternalServerError(msgPrintFailed).TriggerErrorNotification(msgPrintFailed).Write(w)
		return
	}

	resp := NewHTMXResponse()
	if win, ok := presenter.Opened(); ok {
		resp.TriggerLabelPrinted(entry.LabelIdentifier, "/print/"+win.ID)
	}
	if err != nil {
		resp.TriggerWarningNotification(msgHistoryNotSaved).
			Banner(NotificationWarning, msgHistoryNotSaved+" "+entry.LabelIdentifier).
			Write(w)
		return
	}

	s.events.LogLabelPrinted(ctx, sess.ID(), entry.LabelIdentifier, string(entry.ReceiverRegion), len(s.deps.History.Load(ctx)))
	resp.TriggerSuccessNotification("Etiket yazdırıldı: " + entry.LabelIdentifier).
		BodyHTML(`<div class="success">Etiket yazdırıldı: <span class="mono">` + escape(entry.LabelIdentifier) + `</span></div>`).
		Write(w)
}

// handlePrintWindow serves a registered print document once.
func (s *Server) handlePrintWindow(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/print/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, msgWindowNotFound, http.StatusNotFound)
		return
	}

	win, ok := s.deps.Windows.Open(id)
	if !ok {
		http.Error(w, msgWindowNotFound, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(win.HTML)
}

// handleHistory renders the history filtered by q and region.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess := s.session(w, r)

	q := r.URL.Query()
	entries := sess.History(ctx, sanitizeInput(q.Get("q")), sanitizeInput(q.Get("region")))
	s.render(w, r, NewHTMXResponse(), "history.html", historyView{
		Entries: entries,
		Total:   len(s.deps.History.Load(ctx)),
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string, data any) {
	if err := resp.BodyTemplate(s.templates, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		InternalServerError(msgTemplateMissing).Write(w)
		return
	}
	resp.Write(w)
}
