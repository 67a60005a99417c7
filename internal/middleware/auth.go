package middleware

import (
	"net/http"

	"posflow/internal/auth"
	"posflow/internal/logger"

	"go.uber.org/zap"
)

// Auth attaches the claims of a valid access token to the request context.
// Requests without a token pass through anonymously; a token that does not
// verify is rejected.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseJWT(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("access token rejected",
					zap.String("layer", "middleware"),
					zap.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logger.WithFields(ctx, zap.String("owner_id", claims.OwnerID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
