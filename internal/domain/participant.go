package domain

import "time"

// Состояние соединения участника. Мутируется голосовой подсистемой,
// admission-логика эти значения не интерпретирует.
const (
	ConnConnected    = "connected"
	ConnReconnecting = "reconnecting"
	ConnDisconnected = "disconnected"
)

type Participant struct {
	RoomID          string    `db:"room_id"`
	CallerID        string    `db:"caller_id"`
	DisplayName     string    `db:"display_name"`
	Anonymous       bool      `db:"anonymous"`
	Level           int       `db:"level"`
	Speaking        bool      `db:"speaking"`
	Muted           bool      `db:"muted"`
	ConnectionState string    `db:"connection_state"`
	JoinedAt        time.Time `db:"joined_at"`
	LastActiveAt    time.Time `db:"last_active_at"`
}
