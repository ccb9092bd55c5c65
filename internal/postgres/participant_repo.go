package postgres

import (
	"context"

	"github.com/waveroom/admission-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Join — изолированный read-modify-write входа в комнату.
// Берём блокировку на строку комнаты, дальше перепроверяем состояние
// по свежим данным, а не по тем, что видел сканер: исчезнувшая комната
// — ErrRoomNotFound, повторный вход того же caller-а — success без
// мутации, переполнение — ErrRoomFull. Два параллельных Join по одной
// комнате лимит не пробьют.
func (r *ParticipantRepository) Join(ctx context.Context, p *domain.Participant) error {
	return withTxRetry(ctx, r.db, func(tx pgx.Tx) error {
		var capacity int64
		err := tx.QueryRow(ctx,
			`SELECT capacity FROM rooms WHERE id=$1 AND is_active FOR UPDATE`,
			p.RoomID).Scan(&capacity)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrRoomNotFound
			}
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id=$1 AND caller_id=$2)`,
			p.RoomID, p.CallerID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		var count int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM room_participants WHERE room_id=$1`,
			p.RoomID).Scan(&count); err != nil {
			return err
		}
		if count >= capacity {
			return domain.ErrRoomFull
		}

		return insertParticipant(ctx, tx, p)
	})
}

func (r *ParticipantRepository) Leave(ctx context.Context, roomID, callerID string) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM room_participants WHERE room_id=$1 AND caller_id=$2`,
		roomID, callerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}

func (r *ParticipantRepository) TouchHeartbeat(ctx context.Context, roomID, callerID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE room_participants SET last_active_at=now() WHERE room_id=$1 AND caller_id=$2`,
		roomID, callerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	return scanParticipants(ctx, r.db, roomID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanParticipants(ctx context.Context, q querier, roomID string) ([]domain.Participant, error) {
	rows, err := q.Query(ctx, `
		SELECT room_id, caller_id, display_name, anonymous, level,
		       speaking, muted, connection_state, joined_at, last_active_at
		FROM room_participants WHERE room_id=$1 ORDER BY joined_at ASC`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.RoomID, &p.CallerID, &p.DisplayName, &p.Anonymous, &p.Level,
			&p.Speaking, &p.Muted, &p.ConnectionState, &p.JoinedAt, &p.LastActiveAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func insertParticipant(ctx context.Context, tx pgx.Tx, p *domain.Participant) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO room_participants
			(room_id, caller_id, display_name, anonymous, level,
			 speaking, muted, connection_state, joined_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING`,
		p.RoomID, p.CallerID, p.DisplayName, p.Anonymous, p.Level,
		p.Speaking, p.Muted, p.ConnectionState, p.JoinedAt, p.LastActiveAt)
	return err
}
