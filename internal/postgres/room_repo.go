package postgres

import (
	"context"
	"time"

	"github.com/waveroom/admission-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create — вставляет комнату вместе с участниками-основателями одной
// транзакцией. ID и created_at проставляются базой.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return withTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		var lat, lng *float64
		if room.Location != nil {
			lat, lng = &room.Location.Lat, &room.Location.Lng
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO rooms (name, category, anonymous_only, lat, lng,
			                   capacity, xp_multiplier, is_active, is_ghost, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at`,
			room.Name, room.Category, room.AnonymousOnly, lat, lng,
			room.Capacity, room.XPMultiplier, room.IsActive, room.IsGhost, room.CreatedBy,
		).Scan(&room.ID, &room.CreatedAt)
		if err != nil {
			return err
		}

		for i := range room.Participants {
			p := &room.Participants[i]
			p.RoomID = room.ID
			if err := insertParticipant(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	var (
		rm       domain.Room
		lat, lng *float64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, name, category, anonymous_only, lat, lng,
		       capacity, xp_multiplier, is_active, is_ghost, created_by, created_at
		FROM rooms WHERE id=$1`, id).
		Scan(&rm.ID, &rm.Name, &rm.Category, &rm.AnonymousOnly, &lat, &lng,
			&rm.Capacity, &rm.XPMultiplier, &rm.IsActive, &rm.IsGhost, &rm.CreatedBy, &rm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	if lat != nil && lng != nil {
		rm.Location = &domain.Point{Lat: *lat, Lng: *lng}
	}

	parts, err := scanParticipants(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	rm.Participants = parts

	return &rm, nil
}

// FindCandidates — кандидаты для merge: активные комнаты с точным
// совпадением категории и флага анонимности. Фильтры по вместимости,
// отсутствию геопривязки и радиусу остаются за matchmaker-ом: чтение
// советующее, решение о входе принимает транзакция Join.
func (r *RoomRepository) FindCandidates(ctx context.Context, category string, anonymousOnly bool) ([]domain.RoomSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.category, r.lat, r.lng, r.capacity, r.created_at,
		       COUNT(p.caller_id) AS occupancy
		FROM rooms r
		LEFT JOIN room_participants p ON p.room_id = r.id
		WHERE r.is_active AND r.category=$1 AND r.anonymous_only=$2
		GROUP BY r.id
		ORDER BY r.created_at ASC, r.id ASC`,
		category, anonymousOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListActive возвращает страницу активных комнат с курсорной пагинацией.
func (r *RoomRepository) ListActive(ctx context.Context, limit int, cursorStr string) ([]domain.RoomSummary, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	var createdAt, id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.category, r.lat, r.lng, r.capacity, r.created_at,
		       COUNT(p.caller_id) AS occupancy
		FROM rooms r
		LEFT JOIN room_participants p ON p.room_id = r.id
		WHERE r.is_active
		  AND ($1::timestamptz IS NULL OR r.created_at < $1
		       OR (r.created_at = $1 AND r.id < $2))
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $3`,
		createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	rooms, err := scanSummaries(rows)
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		nextCursor, _ = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return rooms, nextCursor, nil
}

func (r *RoomRepository) ActiveRoomIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM rooms WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReapRoom — шаг reaper-а по одной комнате под блокировкой строки.
// Удаление перепроверяет список участников внутри той же транзакции,
// что и Join: параллельный вход либо дождётся блокировки и упрётся в
// ErrRoomNotFound, либо успеет раньше — и комната не будет удалена.
func (r *RoomRepository) ReapRoom(ctx context.Context, roomID string, cutoff time.Time) (pruned int, deleted bool, err error) {
	err = withTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		pruned, deleted = 0, false

		var active bool
		if err := tx.QueryRow(ctx,
			`SELECT is_active FROM rooms WHERE id=$1 FOR UPDATE`, roomID).Scan(&active); err != nil {
			if err == pgx.ErrNoRows {
				return nil // уже удалена параллельным тиком
			}
			return err
		}
		if !active {
			return nil
		}

		var live, stale int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FILTER (WHERE last_active_at >= $2),
			       COUNT(*) FILTER (WHERE last_active_at <  $2)
			FROM room_participants WHERE room_id=$1`,
			roomID, cutoff).Scan(&live, &stale); err != nil {
			return err
		}

		switch {
		case live == 0:
			// пустая комната не несёт состояния — hard delete, каскад
			// уберёт оставшихся участников
			if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, roomID); err != nil {
				return err
			}
			pruned, deleted = stale, true
		case stale > 0:
			cmd, err := tx.Exec(ctx,
				`DELETE FROM room_participants WHERE room_id=$1 AND last_active_at < $2`,
				roomID, cutoff)
			if err != nil {
				return err
			}
			pruned = int(cmd.RowsAffected())
		default:
			// все живы — без записи
		}
		return nil
	})
	return pruned, deleted, err
}

func scanSummaries(rows pgx.Rows) ([]domain.RoomSummary, error) {
	var out []domain.RoomSummary
	for rows.Next() {
		var (
			s        domain.RoomSummary
			lat, lng *float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &lat, &lng,
			&s.Capacity, &s.CreatedAt, &s.Occupancy); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			s.Location = &domain.Point{Lat: *lat, Lng: *lng}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
