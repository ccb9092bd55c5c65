package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/waveroom/admission-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type PresenceSvc interface {
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	TouchHeartbeat(ctx context.Context, roomID, callerID string) error
}

// Server держит presence-канал комнаты: пока сокет жив, каждый pong
// обновляет last_active_at участника. Разрыв соединения участника из
// комнаты НЕ убирает — протухших выметает Reaper, явный выход идёт
// через POST /rooms/{id}/leave.
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	presence PresenceSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, presence PresenceSvc) *Server {
	return &Server{
		hub:      hub,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...&caller_id=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	callerID := strings.TrimSpace(q.Get("caller_id"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	if callerID == "" {
		http.Error(w, "missing caller_id", http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roomID, callerID)
	s.hub.Add(c)

	if err := s.sendState(r.Context(), c); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "caller", callerID, "err", err)
	}

	s.hub.Broadcast(roomID, Message{
		Type:    TypePeerJoined,
		Payload: PeerEventPayload{RoomID: roomID, CallerID: callerID},
	})

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.hub.Remove(c)
	s.hub.Broadcast(roomID, Message{
		Type:    TypePeerLeft,
		Payload: PeerEventPayload{RoomID: roomID, CallerID: callerID},
	})

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "caller", callerID, "err", err)
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	parts, err := s.presence.ListParticipants(ctx, c.roomID)
	if err != nil {
		return err
	}
	items := make([]ParticipantStateItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, ParticipantStateItem{
			CallerID:     p.CallerID,
			DisplayName:  p.DisplayName,
			Muted:        p.Muted,
			Speaking:     p.Speaking,
			JoinedAt:     p.JoinedAt.Unix(),
			LastActiveAt: p.LastActiveAt.Unix(),
		})
	}

	return c.Send(Message{
		Type:    TypeState,
		Payload: StatePayload{RoomID: c.roomID, Participants: items},
	})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	_ = s.presence.TouchHeartbeat(ctx, c.roomID, c.callerID)

	c.conn.SetReadLimit(1 << 16)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		_ = s.presence.TouchHeartbeat(ctx, c.roomID, c.callerID)
		return nil
	})

	// входящие сообщения игнорируем, канал серверный
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn     *websocket.Conn
	roomID   string
	callerID string
	sendMu   chan struct{}
	closed   chan struct{}
}

func newWsConn(c *websocket.Conn, roomID, callerID string) *wsConn {
	return &wsConn{
		conn:     c,
		roomID:   roomID,
		callerID: callerID,
		sendMu:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) CallerID() string { return c.callerID }
func (c *wsConn) RoomID() string   { return c.roomID }
