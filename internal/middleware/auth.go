package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"fieldmetrics-dashboard/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID string
	Role   auth.UserRole
	Email  string
	APIKey bool
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// DashboardAuth accepts either a bearer JWT or an X-Api-Key checked against
// the configured bcrypt hash. API-key callers act as admin (automation path);
// JWT callers carry their own role, enforced against the path's requirement.
// With neither secret configured the dashboard runs open, for local use.
func DashboardAuth(jwtSecret string, apiKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if jwtSecret == "" && apiKeyHash == "" {
				ctx := WithAuthContext(r.Context(), &AuthContext{Role: auth.RoleAdmin})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if key := strings.TrimSpace(r.Header.Get("X-Api-Key")); key != "" && apiKeyHash != "" {
				if err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)); err != nil {
					writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
					return
				}
				ctx := WithAuthContext(r.Context(), &AuthContext{Role: auth.RoleAdmin, APIKey: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthErrorDebug(w, http.StatusUnauthorized, "Authorization token required", err.Error())
				return
			}

			if need := auth.RequiredRole(r.URL.Path, r.Method); need != nil {
				if !auth.Allows(claims.Role, *need) {
					writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
					return
				}
			}

			authCtx := &AuthContext{
				UserID: claims.UserID,
				Role:   claims.Role,
				Email:  claims.Email,
			}
			ctx := WithAuthContext(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
