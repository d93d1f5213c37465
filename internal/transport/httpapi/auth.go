package httpapi

import (
	"crypto/subtle"
	"net/http"
)

const authChallenge = `Basic realm="indexer"`

// authenticate rejects requests without matching Basic-Auth credentials.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			w.Header().Set("WWW-Authenticate", authChallenge)
			writeError(w, http.StatusUnauthorized, codeAuthFailed, "Authentication failed", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.Password)) == 1
	return userOK && passOK
}
