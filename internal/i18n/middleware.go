package i18n

import "net/http"

// CookieName holds the language chosen on the settings page.
const CookieName = "lang"

// Middleware injects the request language and its localizer into every request
// context. The language cookie wins over Accept-Language; fallback is the
// configured default.
func Middleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := fallback
			if c, err := r.Cookie(CookieName); err == nil && IsSupported(c.Value) {
				lang = c.Value
			} else if accept := r.Header.Get("Accept-Language"); accept != "" {
				lang = Match(accept, fallback)
			}
			ctx := WithLang(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
