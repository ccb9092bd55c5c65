package service

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultStalenessWindow = 5 * time.Minute
	DefaultReapInterval    = 5 * time.Minute
)

type ReaperStore interface {
	ActiveRoomIDs(ctx context.Context) ([]string, error)
	ReapRoom(ctx context.Context, roomID string, cutoff time.Time) (pruned int, deleted bool, err error)
}

// Reaper периодически выметает участников с протухшим heartbeat и
// удаляет опустевшие комнаты.
type Reaper struct {
	store    ReaperStore
	window   time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewReaper(store ReaperStore, window, interval time.Duration) *Reaper {
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &Reaper{store: store, window: window, interval: interval, now: time.Now}
}

// Run гоняет ReapOnce по тикеру до отмены контекста.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := r.ReapOnce(ctx); err != nil {
				slog.Error("reap tick failed", "err", err)
			}
		}
	}
}

// ReapOnce — один проход по активным комнатам. Комнаты независимы:
// ошибка на одной не останавливает остальные.
func (r *Reaper) ReapOnce(ctx context.Context) (roomsDeleted, participantsPruned int, err error) {
	ids, err := r.store.ActiveRoomIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	cutoff := r.now().Add(-r.window)
	for _, id := range ids {
		pruned, deleted, err := r.store.ReapRoom(ctx, id, cutoff)
		if err != nil {
			slog.Error("reap room failed", "room", id, "err", err)
			continue
		}
		participantsPruned += pruned
		if deleted {
			roomsDeleted++
		}
	}

	slog.Info("reap pass done",
		"rooms_scanned", len(ids),
		"rooms_deleted", roomsDeleted,
		"participants_pruned", participantsPruned)

	return roomsDeleted, participantsPruned, nil
}
