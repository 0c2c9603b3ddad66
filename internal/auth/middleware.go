package auth

import (
	"net/http"
)

// RequirePage guards HTML pages: requests without a valid session are
// redirected to the login form.
func RequirePage(m *Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.Verify(r)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}

// RequireAPI guards JSON endpoints: requests without a valid session
// get a 401 instead of a redirect.
func RequireAPI(m *Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.Verify(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"error":"Não autenticado"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}
