package ws

// События presence-канала
const (
	TypeState      = "state"       // снапшот всех участников
	TypePeerJoined = "peer_joined" // пользователь присоединился
	TypePeerLeft   = "peer_left"   // пользователь отключился
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatePayload struct {
	RoomID       string                 `json:"room_id"`
	Participants []ParticipantStateItem `json:"participants"`
}

type ParticipantStateItem struct {
	CallerID     string `json:"caller_id"`
	DisplayName  string `json:"display_name"`
	Muted        bool   `json:"muted"`
	Speaking     bool   `json:"speaking"`
	JoinedAt     int64  `json:"joined_at_unix"`
	LastActiveAt int64  `json:"last_active_at_unix"`
}

type PeerEventPayload struct {
	RoomID   string `json:"room_id"`
	CallerID string `json:"caller_id"`
}
