package httpmw

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type HeartbeatToucher interface {
	TouchHeartbeat(ctx context.Context, roomID, callerID string) error
}

// HeartbeatMiddleware обновляет last_active_at для {roomID, callerID},
// если roomID есть в пути. Любой запрос к комнате — признак жизни.
func HeartbeatMiddleware(presence HeartbeatToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID := CallerIDFromCtx(r.Context())
			if callerID != "" {
				if roomID := chi.URLParam(r, "id"); roomID != "" {
					// best-effort: ошибки не прерывают запрос
					_ = presence.TouchHeartbeat(r.Context(), roomID, callerID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
