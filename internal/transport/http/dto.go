package http

import "time"

type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ProfileDTO struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Level       int    `json:"level"`
}

type CreateOrJoinRequest struct {
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	IsAnonymous    bool         `json:"is_anonymous"`
	Location       *LocationDTO `json:"location,omitempty"`
	CreatorProfile ProfileDTO   `json:"creator_profile"`
	RegionName     string       `json:"region_name,omitempty"`
	IsGhostMode    bool         `json:"is_ghost_mode,omitempty"`
}

type AdmissionResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"room_id"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RoomItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Location  *LocationDTO `json:"location,omitempty"`
	Capacity  int          `json:"capacity"`
	Occupancy int          `json:"occupancy"`
	CreatedAt time.Time    `json:"created_at"`
}

type RoomsListResponse struct {
	Items      []RoomItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type RoomDetailResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	AnonymousOnly bool              `json:"anonymous_only"`
	Location      *LocationDTO      `json:"location,omitempty"`
	Capacity      int               `json:"capacity"`
	XPMultiplier  int               `json:"xp_multiplier"`
	IsGhost       bool              `json:"is_ghost"`
	CreatedAt     time.Time         `json:"created_at"`
	Participants  []ParticipantItem `json:"participants"`
}

type ParticipantItem struct {
	CallerID        string    `json:"caller_id"`
	DisplayName     string    `json:"display_name"`
	IsAnonymous     bool      `json:"is_anonymous"`
	Level           int       `json:"level"`
	IsSpeaking      bool      `json:"is_speaking"`
	IsMuted         bool      `json:"is_muted"`
	ConnectionState string    `json:"connection_state"`
	JoinedAt        time.Time `json:"joined_at"`
	LastActiveAt    time.Time `json:"last_active_at"`
}
