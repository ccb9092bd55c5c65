package service

import (
	"context"
	"errors"

	"github.com/waveroom/admission-service/internal/domain"
	"github.com/waveroom/admission-service/internal/postgres"
)

type RoomsService struct {
	roomRepo *postgres.RoomRepository
}

func NewRoomsService(roomRepo *postgres.RoomRepository) *RoomsService {
	return &RoomsService{roomRepo: roomRepo}
}

// GetRoom возвращает комнату с участниками.
func (s *RoomsService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.roomRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// ListRooms — активные комнаты с курсорной пагинацией.
func (s *RoomsService) ListRooms(ctx context.Context, limit int, cursor string) ([]domain.RoomSummary, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.roomRepo.ListActive(ctx, limit, cursor)
}
