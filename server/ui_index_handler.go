package server

import (
	"net/http"

	"github.com/jrsteele09/go-journal-auth/session"
	"github.com/jrsteele09/go-journal-auth/users"
)

// ViewPageData is the template model for protected views
type ViewPageData struct {
	AppName string
	Title   string
	User    *users.User
}

// IndexHandler sends the root to the journal, which is guarded
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteJournal, http.StatusSeeOther)
	}
}

func (s *Server) JournalHandler() http.HandlerFunc {
	return s.viewHandler("journal.html", "My journal")
}

func (s *Server) ConsentFormHandler() http.HandlerFunc {
	return s.viewHandler("consent_form.html", "Consent form")
}

func (s *Server) viewHandler(name, title string) http.HandlerFunc {
	tmpl := mustParseTemplate(name)

	return func(w http.ResponseWriter, r *http.Request) {
		store, err := session.FromContext(r.Context())
		if err != nil {
			http.Error(w, "No active session", http.StatusBadRequest)
			return
		}
		renderTemplate(w, tmpl, ViewPageData{
			AppName: s.config.GetAppName(),
			Title:   title,
			User:    store.State().User,
		})
	}
}
