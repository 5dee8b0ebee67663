package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/synapsocial/synapsocial/internal/ctxkeys"
	"github.com/synapsocial/synapsocial/internal/service"
)

const authCookieName = "auth_token"

// Auth verifies the JWT from the Authorization header or the auth_token cookie
// and adds the user id to the context. Requests without a valid token pass through anonymous.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, source := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.VerifyJWT(token)
			if err != nil {
				slog.Debug("rejected token", "source", source, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID, source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Bearer wins over the cookie.
func tokenFromRequest(r *http.Request) (string, ctxkeys.AuthSource) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), ctxkeys.AuthBearer
		}
	}
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, ctxkeys.AuthCookie
	}
	return "", ""
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.UserID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}
