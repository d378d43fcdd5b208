package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finview/internal/core"
	"finview/internal/log"
)

// basePage carries the fields every template needs: the navbar state and
// the pending notices.
type basePage struct {
	Authenticated bool
	Error         string
	Success       string
}

func (s *Server) newBasePage() basePage {
	errMsg, okMsg := s.notices.Take()
	return basePage{
		Authenticated: s.sessions.IsAuthenticated(),
		Error:         errMsg,
		Success:       okMsg,
	}
}

// render executes a named template, falling back to a plain 500 when
// templates failed to parse at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
	}
}

// formatAmount renders cents as a currency string, e.g. "$42.50".
func formatAmount(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// capitalize upper-cases the first character for display.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID extracts the {id} path segment as an int64.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
