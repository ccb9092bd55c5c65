package service

import (
	"context"

	"github.com/waveroom/admission-service/internal/domain"
	"github.com/waveroom/admission-service/internal/postgres"
)

// PresenceService — выход из комнаты и liveness-отметки. Сам снос
// протухших участников делает Reaper.
type PresenceService struct {
	participantRepo *postgres.ParticipantRepository
}

func NewPresenceService(participantRepo *postgres.ParticipantRepository) *PresenceService {
	return &PresenceService{participantRepo: participantRepo}
}

func (s *PresenceService) LeaveRoom(ctx context.Context, roomID, callerID string) error {
	return s.participantRepo.Leave(ctx, roomID, callerID)
}

func (s *PresenceService) TouchHeartbeat(ctx context.Context, roomID, callerID string) error {
	return s.participantRepo.TouchHeartbeat(ctx, roomID, callerID)
}

func (s *PresenceService) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	return s.participantRepo.ListByRoom(ctx, roomID)
}
