package httpmw

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	ctxKeyToken    ctxKey = "token"
	ctxKeyCallerID ctxKey = "caller_id"
)

// Верификация токена — зона auth-сервиса; здесь требуем только
// Bearer + X-User-ID.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
			return
		}

		callerID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if callerID == "" {
			http.Error(w, `{"error":"missing X-User-ID"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, strings.TrimSpace(auth[7:]))
		ctx = context.WithValue(ctx, ctxKeyCallerID, callerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CallerIDFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxKeyCallerID); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
