package gateway

import (
	"context"
	"net/http"
)

// Guard lets a request through only when it carries the session cookie.
// loginPath is the one public route: without a cookie every other path
// redirects there, and with a cookie loginPath itself redirects to
// landingPath. The token is put on the request context for TokenFrom.
func Guard(loginPath, landingPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)

			if r.URL.Path == loginPath {
				if ok {
					http.Redirect(w, r, landingPath, http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, token)))
		})
	}
}
