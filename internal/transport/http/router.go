package http

import (
	"net/http"
	"time"

	httpmw "github.com/waveroom/admission-service/internal/transport/http/middleware"
	"github.com/waveroom/admission-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, presence PresenceAPI, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// presence-канал
	r.Get("/ws/rooms/{id}", wsServer.HandleWS)

	// Все маршруты требуют access_token и caller id
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware)
		pr.Use(httpmw.HeartbeatMiddleware(presence))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateOrJoinRoom)
			rm.Post("/ghost", h.CreateGhostRoom)
			rm.Get("/", h.ListRooms)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Post("/leave", h.LeaveRoom)
				rr.Post("/heartbeat", h.Heartbeat)
				rr.Get("/participants", h.GetParticipants)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
