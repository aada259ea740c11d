package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"etiket/internal/core"
)

// maxBodyBytes bounds label form bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads the label form. htmx posts it form-encoded; the
// json-enc extension and scripted clients post JSON.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body once. An empty body is an empty form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns the trimmed field with control characters removed.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// LabelDraft reads the label form fields. The multi-line dispatch note
// keeps its line breaks.
func (p *RequestBodyParser) LabelDraft() core.LabelDraft {
	return core.LabelDraft{
		Date:           p.Get(string(core.FieldDate)),
		ReceiverRegion: core.NormalizeRegion(p.Get(string(core.FieldReceiverRegion))),
		ReceiverName:   p.Get(string(core.FieldReceiverName)),
		DispatchNote:   p.Get(string(core.FieldDispatchNote)),
		ProductName:    p.Get(string(core.FieldProductName)),
		AssetNumber:    p.Get(string(core.FieldAssetNumber)),
	}
}

// PopupOpened reports whether the page managed to pre-open the print window.
// Anything but "open" counts as blocked.
func (p *RequestBodyParser) PopupOpened() bool {
	return p.Get("popup") == "open"
}

// stringValue flattens JSON scalars; objects and arrays read as empty.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod returns a 405 response unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET accepts GET and HEAD.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
