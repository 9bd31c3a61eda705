package mwAuth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"martyrgrave-service/pkg/response"
)

type ctxKey struct{}

// New requires an Authorization: Bearer header on every request and puts
// the raw token in the request context. Token validation is delegated to
// the identity provider upstream; this layer only rejects the missing case
// so handlers never see unauthenticated traffic.
func New() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "missing bearer token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func Token(ctx context.Context) string {
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}
