package http

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder assembles an htmx response: status, HX-Trigger events
// and an HTML fragment.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	header     http.Header
}

// NewHTMXResponse starts a 200 response.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		header:     make(http.Header),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds an HX-Trigger event; a later trigger of the same name wins.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerLabelPrinted adds the label:printed trigger. The page navigates
// its pre-opened window to url and refreshes the history.
func (b *HTMXResponseBuilder) TriggerLabelPrinted(id, url string) *HTMXResponseBuilder {
	return b.Trigger("label:printed", map[string]string{"id": id, "url": url})
}

// NotificationType is both the toast type and the banner CSS class.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification event for the page's toast.
func (b *HTMXResponseBuilder) TriggerNotification(kind NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// TriggerWarningNotification stays up longer than the others.
func (b *HTMXResponseBuilder) TriggerWarningNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationWarning, message, 8000)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// BodyHTML sets a trusted HTML fragment as the body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// Banner sets the body to a single escaped message styled as kind.
func (b *HTMXResponseBuilder) Banner(kind NotificationType, message string) *HTMXResponseBuilder {
	return b.BodyHTML(`<div class="` + string(kind) + `">` + template.HTMLEscapeString(message) + `</div>`)
}

// BodyTemplate renders the named template as the HTML body. On error the
// builder is left unchanged.
func (b *HTMXResponseBuilder) BodyTemplate(t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = buf.Bytes()
	return nil
}

// Write sends headers, HX-Trigger, status and body.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.header {
		w.Header()[name] = values
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse is an error banner with the given status.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().Status(statusCode).Banner(NotificationError, message)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError answers a label draft with missing fields.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ConflictError answers a print whose window was blocked. The label was not
// committed, so it is a warning rather than an error.
func ConflictError(message string) *HTMXResponseBuilder {
	return NewHTMXResponse().Status(http.StatusConflict).Banner(NotificationWarning, message)
}

// MethodNotAllowedError sets Allow to allowedMethods.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
