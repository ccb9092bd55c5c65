package domain

import "time"

const DefaultCapacity = 8

// XP-множители. Регион даёт 2x, ghost-комната — фиксированные 3x
// (перекрывает регион).
const (
	XPBase   = 1
	XPRegion = 2
	XPGhost  = 3
)

type Point struct {
	Lat float64 `db:"lat"`
	Lng float64 `db:"lng"`
}

type Room struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Category      string    `db:"category"`
	AnonymousOnly bool      `db:"anonymous_only"`
	Location      *Point    // nil — комната без геопривязки, в matchmaking не участвует
	Capacity      int       `db:"capacity"`
	XPMultiplier  int       `db:"xp_multiplier"`
	IsActive      bool      `db:"is_active"`
	IsGhost       bool      `db:"is_ghost"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`

	Participants []Participant
}

// RoomSummary — то, что видит matchmaker при сканировании кандидатов:
// без списка участников, только счётчик.
type RoomSummary struct {
	ID        string
	Name      string
	Category  string
	Location  *Point
	Capacity  int
	Occupancy int
	CreatedAt time.Time
}

func (r RoomSummary) Full() bool {
	return r.Occupancy >= r.Capacity
}
