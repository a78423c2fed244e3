package server

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// clientCookieName is the name of the cookie identifying a browser client
	clientCookieName = "journal_client"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

func (s *Server) SetClientCookie(w http.ResponseWriter, clientID string, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    clientID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetClientCookieAge().Seconds()),
	})
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects. extra carries form
// values to preserve on the retry form.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string, extra url.Values) {
	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set("error", errorMsg)
	redirectSuccess(w, r, path+"?"+query.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
