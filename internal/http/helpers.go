package http

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	applog "etiket/internal/log"
	"etiket/internal/workstation"
)

// SessionCookie carries the workstation session ID.
const SessionCookie = "etiket_session"

// session returns the caller's workstation session, starting one when the
// cookie is missing or stale. The cookie is re-sent on every use so that it
// expires together with the server-side session, SessionTTL after the last
// request. A zero SessionTTL makes it a browser-session cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *workstation.Session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	sess, created := s.deps.Sessions.Acquire(id)
	if created {
		s.logger.Debug("Session cookie issued", applog.FieldSessionID, sess.ID())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		MaxAge:   int(s.deps.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

func escape(s string) string {
	return template.HTMLEscapeString(s)
}
