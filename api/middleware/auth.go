package middleware

import (
	"net/http"
	"strings"

	"github.com/mvcampos/oticaflow-backend/api/responses"
	pkgauth "github.com/mvcampos/oticaflow-backend/pkg/auth"
	"github.com/mvcampos/oticaflow-backend/pkg/config"
	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
	"github.com/mvcampos/oticaflow-backend/pkg/logger"
)

// Auth validates the bearer token and seeds the request context with the
// authenticated staff identity. Tokens are minted by the identity service
// with the shared signing secret.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithStoreID(ctx, claims.StoreID.String())
			ctx = WithRole(ctx, claims.Role.String())

			ctx = logg.WithUserID(ctx, claims.UserID.String())
			ctx = logg.WithStoreID(ctx, claims.StoreID.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager blocks non-manager staff. Applied to destructive endpoints
// on top of the PIN check handled by the sale service.
func RequireManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != "manager" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "manager role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authorization header must be a bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}
