package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kennahq/kenna-pos-backend/api/responses"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
)

const registerIDHeader = "X-Register-Id"

type contextKey string

const ctxRegisterID contextKey = "register_id"

// RegisterContext resolves the register identity for cart and checkout
// routes. Every terminal gets its own cart and checkout lock keyed by this
// id, so a request without one is rejected.
func RegisterContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			registerID := strings.TrimSpace(r.Header.Get(registerIDHeader))
			if registerID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Register-Id header required"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxRegisterID, registerID)
			if logg != nil {
				ctx = logg.WithRegisterID(ctx, registerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RegisterIDFromContext returns the register id resolved by RegisterContext.
func RegisterIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRegisterID).(string); ok {
		return v
	}
	return ""
}
