package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"unicode"

	"confgit.dev/confgit/internal/git"
)

type userContextKey struct{}

// basicAuth guards the repository-facing routes. The authenticated
// username is placed in the request context to derive commit authorship.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !s.checkCredentials(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="confgit"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) checkCredentials(username, password string) bool {
	expected, ok := s.users[username]
	if !ok {
		// compare against the input itself so unknown users cost the
		// same time as wrong passwords
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
}

// UsernameFromContext returns the authenticated username, or an empty
// string outside an authenticated request.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(userContextKey{}).(string)
	return username
}

// AuthorForUser derives the commit identity from an authenticated
// username: capitalized as the name, username@example.com as the email.
func AuthorForUser(username string) git.Author {
	username = strings.TrimSpace(username)
	if username == "" {
		return git.Author{Name: "Console UI", Email: "user@example.com"}
	}
	runes := []rune(username)
	runes[0] = unicode.ToUpper(runes[0])
	return git.Author{Name: string(runes), Email: username + "@example.com"}
}
