package middleware

import (
	"net/http"
	"strings"
)

const (
	motionCookieName  = "motion"
	motionHintHeader  = "Sec-CH-Prefers-Reduced-Motion"
	motionValueReduce = "reduce"
)

// Motion resolves the reduced-motion preference. A ?motion= query wins and is remembered
// in a cookie; otherwise the cookie, then the client hint, decide. The hint is advertised
// so supporting browsers send it on subsequent requests.
func Motion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", motionHintHeader)
		w.Header().Add("Vary", motionHintHeader)

		reduced := false
		if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("motion"))); q != "" {
			reduced = q == motionValueReduce
			http.SetCookie(w, &http.Cookie{
				Name:     motionCookieName,
				Value:    q,
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
				Secure:   sessionSecure,
				MaxAge:   365 * 24 * 60 * 60,
			})
		} else if c, err := r.Cookie(motionCookieName); err == nil && c.Value != "" {
			reduced = strings.ToLower(c.Value) == motionValueReduce
		} else {
			reduced = strings.Trim(strings.ToLower(r.Header.Get(motionHintHeader)), `" `) == motionValueReduce
		}
		next.ServeHTTP(w, r.WithContext(WithReducedMotion(r.Context(), reduced)))
	})
}
