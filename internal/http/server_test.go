package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"etiket/internal/config"
	"etiket/internal/core"
	"etiket/internal/history"
	"etiket/internal/history/memory"
	applog "etiket/internal/log"
	"etiket/internal/printing"
	"etiket/internal/workstation"
	appweb "etiket/web"
)

var testNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("TRT", 3*60*60))

// failingRepo accepts nothing, for the history-not-saved path.
type failingRepo struct{}

func (failingRepo) Load(context.Context) []core.HistoryEntry { return nil }
func (failingRepo) AppendAndSave(context.Context, core.HistoryEntry) error {
	return errors.New("disk full")
}

func newTestServer(t *testing.T, repo history.Repository) *Server {
	t.Helper()
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})

	tmpl, err := appweb.ParseTemplates()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	renderer := printing.NewRenderer(tmpl, config.DefaultLabelProfile())

	srv, err := NewServer(":0", Deps{
		Sessions: workstation.NewManager(repo, 10, time.Hour, workstation.Options{
			Now:     func() time.Time { return testNow },
			Logger:  logger.Slog(),
			Regions: config.DefaultLabelProfile().Regions,
		}),
		Windows:    printing.NewRegistry(renderer, 10, time.Minute, logger.Slog()),
		Renderer:   renderer,
		History:    repo,
		Logger:     logger,
		SessionTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func newMemoryRepo(t *testing.T) *history.Store {
	t.Helper()
	return history.Open(context.Background(), memory.New(), history.DefaultKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "192.0.2.10:4000"
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func labelForm(popup string) url.Values {
	return url.Values{
		"date":           {"2024-03-05"},
		"receiverRegion": {"IZMIR"},
		"receiverName":   {"Zeynep Kaya"},
		"productName":    {"Yazıcı"},
		"assetNumber":    {"DMR-9"},
		"dispatchNote":   {""},
		"popup":          {popup},
	}
}

func TestIndexAndHealth(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, newMemoryRepo(t))}

	rr := c.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Sevk Etiketi", "20240305-001", `value="2024-03-05"`, "ISTANBUL"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if c.cookie == nil || !c.cookie.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", c.cookie)
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "https://unpkg.com") {
		t.Errorf("unexpected CSP: %s", csp)
	}

	if rr := c.do(http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := c.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyReportsBackendFailure(t *testing.T) {
	srv := newTestServer(t, newMemoryRepo(t))
	srv.deps.Ready = func(context.Context) error { return errors.New("database is locked") }

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || out["status"] != "not_ready" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestExportFlow(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, newMemoryRepo(t))}

	rr := c.do(http.MethodGet, "/export?format=csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="gunluk-ozet-2024-03-05.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("exports must not be cached")
	}
	if !strings.Contains(rr.Body.String(), "05.03.2024") {
		t.Errorf("csv body missing the date: %s", rr.Body.String())
	}

	rr = c.do(http.MethodGet, "/ui/export-preview?date=2024-02-29", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `id="export-rows"`) {
		t.Fatalf("preview status=%d", rr.Code)
	}
	rr = c.do(http.MethodGet, "/export?format=xlsx", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("Content-Disposition"), "2024-02-29.xlsx") {
		t.Fatalf("xlsx export status=%d cd=%q", rr.Code, rr.Header().Get("Content-Disposition"))
	}

	if rr := c.do(http.MethodGet, "/ui/export-preview?date=29.02.2024", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid date status=%d", rr.Code)
	}

	if rr := c.do(http.MethodGet, "/export?format=pdf", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("unsupported format status=%d", rr.Code)
	}

	c.do(http.MethodGet, "/ui/export-preview?date=", nil)
	rr = c.do(http.MethodGet, "/export?format=csv", nil)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), msgNoDate) {
		t.Errorf("export without date: status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestLabelPreview(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, newMemoryRepo(t))}

	form := labelForm("")
	form.Set("receiverName", "<i>Zeynep</i>")
	rr := c.do(http.MethodPost, "/ui/label/preview", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "20240305-001") || !strings.Contains(body, "&lt;i&gt;Zeynep") {
		t.Fatalf("unexpected preview: %s", body)
	}

	if rr := c.do(http.MethodGet, "/ui/label/preview", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET preview status=%d", rr.Code)
	}
}

func TestPrintFlow(t *testing.T) {
	repo := newMemoryRepo(t)
	c := &client{t: t, srv: newTestServer(t, repo)}

	incomplete := labelForm("open")
	incomplete.Del("receiverName")
	incomplete.Del("assetNumber")
	rr := c.do(http.MethodPost, "/labels/print", incomplete)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete print status=%d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "Alıcı Adı") || !strings.Contains(body, "Demirbaş Numarası") {
		t.Errorf("missing fields should be listed together: %s", body)
	}

	rr = c.do(http.MethodPost, "/labels/print", labelForm("blocked"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("blocked popup status=%d", rr.Code)
	}
	if repo.Len() != 0 {
		t.Fatalf("nothing may be recorded before the window opens, got %d", repo.Len())
	}

	rr = c.do(http.MethodPost, "/labels/print", labelForm("open"))
	if rr.Code != http.StatusOK {
		t.Fatalf("print status=%d body=%s", rr.Code, rr.Body.String())
	}
	var trigger map[string]map[string]any
	if err := json.Unmarshal([]byte(rr.Header().Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("HX-Trigger: %v", err)
	}
	printed := trigger["label:printed"]
	if printed["id"] != "20240305-001" {
		t.Fatalf("unexpected label:printed payload: %v", printed)
	}
	windowURL, _ := printed["url"].(string)
	if !strings.HasPrefix(windowURL, "/print/") {
		t.Fatalf("unexpected window url %q", windowURL)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one history entry, got %d", repo.Len())
	}

	rr = c.do(http.MethodGet, windowURL, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "20240305-001") {
		t.Fatalf("print window status=%d", rr.Code)
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "'unsafe-inline'") {
		t.Errorf("print window CSP = %q", csp)
	}
	if rr := c.do(http.MethodGet, windowURL, nil); rr.Code != http.StatusNotFound {
		t.Errorf("print window must be one-shot, second fetch status=%d", rr.Code)
	}

	rr = c.do(http.MethodPost, "/ui/label/preview", labelForm(""))
	if !strings.Contains(rr.Body.String(), "20240305-002") {
		t.Errorf("sequence should advance after a print: %s", rr.Body.String())
	}

	rr = c.do(http.MethodGet, "/ui/history?q=zeynep&region=IZMIR", nil)
	if !strings.Contains(rr.Body.String(), "20240305-001") {
		t.Errorf("history search should find the label: %s", rr.Body.String())
	}
	rr = c.do(http.MethodGet, "/ui/history?q=zeynep&region=ANKARA", nil)
	if !strings.Contains(rr.Body.String(), "Kayıt bulunamadı") {
		t.Errorf("region filter should exclude the label: %s", rr.Body.String())
	}
}

func TestPrintRejectsRegionOutsideProfile(t *testing.T) {
	repo := newMemoryRepo(t)
	c := &client{t: t, srv: newTestServer(t, repo)}

	form := labelForm("open")
	form.Set("receiverRegion", "<b>narnia</b>")
	rr := c.do(http.MethodPost, "/labels/print", form)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Alıcı Bölgesi") || strings.Contains(body, "<b>") {
		t.Errorf("region should be reported invalid and escaped: %s", body)
	}
	if strings.Contains(rr.Header().Get("HX-Trigger"), "label:printed") {
		t.Error("no window may open for a rejected region")
	}
	if repo.Len() != 0 {
		t.Fatalf("rejected label must not reach the history, got %d", repo.Len())
	}
}

func TestPrintHistoryNotSaved(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, failingRepo{})}

	rr := c.do(http.MethodPost, "/labels/print", labelForm("open"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "label:printed") || !strings.Contains(trigger, `"type":"warning"`) {
		t.Fatalf("window should still open with a warning: %s", trigger)
	}
}

func TestPrintWindowUnknown(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, newMemoryRepo(t))}
	if rr := c.do(http.MethodGet, "/print/does-not-exist", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, newMemoryRepo(t))
	a := &client{t: t, srv: srv}
	b := &client{t: t, srv: srv}

	a.do(http.MethodPost, "/labels/print", labelForm("open"))
	rr := b.do(http.MethodPost, "/ui/label/preview", labelForm(""))
	if !strings.Contains(rr.Body.String(), "20240305-001") {
		t.Errorf("a second operator starts at sequence 1: %s", rr.Body.String())
	}
	if a.cookie.Value == b.cookie.Value {
		t.Error("operators must get different sessions")
	}
}

func TestSessionCookieRefreshedOnUse(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, newMemoryRepo(t))}

	c.do(http.MethodGet, "/", nil)
	if c.cookie == nil {
		t.Fatal("expected a session cookie")
	}
	first := c.cookie.Value

	for _, target := range []string{"/ui/history", "/ui/export-preview?date=2024-03-06"} {
		rr := c.do(http.MethodGet, target, nil)
		var refreshed *http.Cookie
		for _, ck := range rr.Result().Cookies() {
			if ck.Name == SessionCookie {
				refreshed = ck
			}
		}
		if refreshed == nil {
			t.Fatalf("%s: session cookie not re-sent", target)
		}
		if refreshed.Value != first {
			t.Errorf("%s: session changed from %s to %s", target, first, refreshed.Value)
		}
		if refreshed.MaxAge != 3600 {
			t.Errorf("%s: MaxAge = %d, want 3600", target, refreshed.MaxAge)
		}
	}
}
