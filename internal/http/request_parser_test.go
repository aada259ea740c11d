package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"receiverName": "Zeynep", "receiverRegion": "izmir", "seq": 12}`
	req := httptest.NewRequest(http.MethodPost, "/labels/print", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("seq"); got != "12" {
		t.Errorf("Get('seq') = %q, want '12'", got)
	}

	draft := parser.LabelDraft()
	if draft.ReceiverName != "Zeynep" || draft.ReceiverRegion != "IZMIR" {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestRequestBodyParser_FormLabelDraft(t *testing.T) {
	body := "date=2024-03-05&receiverRegion=ANKARA&receiverName=+Ali+&productName=Laptop" +
		"&assetNumber=DMR-1&dispatchNote=ilk+sat%C4%B1r%0Aikinci%00&popup=open"
	req := httptest.NewRequest(http.MethodPost, "/labels/print", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	draft := parser.LabelDraft()
	if draft.ReceiverName != "Ali" {
		t.Errorf("ReceiverName = %q, want trimmed 'Ali'", draft.ReceiverName)
	}
	if draft.DispatchNote != "ilk satır\nikinci" {
		t.Errorf("DispatchNote = %q, want line break kept and NUL removed", draft.DispatchNote)
	}
	if draft.Date != "2024-03-05" || draft.AssetNumber != "DMR-1" {
		t.Errorf("unexpected draft: %+v", draft)
	}
	if parser.Get("popup") != "open" {
		t.Errorf("popup = %q", parser.Get("popup"))
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":`))
	req.Header.Set("Content-Type", "application/json")
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"HEAD allowed with multiple", http.MethodHead, []string{http.MethodGet, http.MethodHead}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequirePOSTAndGET(t *testing.T) {
	post := httptest.NewRequest(http.MethodPost, "/test", nil)
	get := httptest.NewRequest(http.MethodGet, "/test", nil)

	if RequirePOST(post) != nil || RequirePOST(get) == nil {
		t.Error("RequirePOST should allow only POST")
	}
	if RequireGET(get) != nil || RequireGET(post) == nil {
		t.Error("RequireGET should allow only GET and HEAD")
	}
}

func TestRequestBodyParser_PopupOpened(t *testing.T) {
	for body, want := range map[string]bool{
		"popup=open":    true,
		"popup=blocked": false,
		"popup=OPEN":    false,
		"":              false,
	} {
		req := httptest.NewRequest(http.MethodPost, "/labels/print", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		p := NewRequestBodyParser(req)
		if err := p.Parse(); err != nil {
			t.Fatalf("parse %q: %v", body, err)
		}
		if got := p.PopupOpened(); got != want {
			t.Errorf("PopupOpened(%q) = %v, want %v", body, got, want)
		}
	}
}
