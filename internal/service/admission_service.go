package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/waveroom/admission-service/internal/domain"
)

const (
	ActionMerged       = "merged"
	ActionCreated      = "created"
	ActionGhostCreated = "ghost_created"
)

type RoomCreator interface {
	Create(ctx context.Context, room *domain.Room) error
}

type Joiner interface {
	Join(ctx context.Context, p *domain.Participant) error
}

type Profile struct {
	Username    string
	DisplayName string
	Level       int
}

type AdmissionRequest struct {
	CallerID   string
	Name       string
	Category   string
	Anonymous  bool
	Location   *domain.Point
	Profile    Profile
	RegionName string
	GhostMode  bool
}

type AdmissionResult struct {
	RoomID  string
	Action  string
	Message string
}

// AdmissionService — точка входа admission-потока:
// валидация → поиск кандидата → Join → (fallback) создание комнаты.
type AdmissionService struct {
	rooms      RoomCreator
	joiner     Joiner
	matchmaker *Matchmaker
	exempt     ExemptionPolicy

	capacity int
	now      func() time.Time
}

func NewAdmissionService(rooms RoomCreator, joiner Joiner, mm *Matchmaker, exempt ExemptionPolicy) *AdmissionService {
	return &AdmissionService{
		rooms:      rooms,
		joiner:     joiner,
		matchmaker: mm,
		exempt:     exempt,
		capacity:   domain.DefaultCapacity,
		now:        time.Now,
	}
}

func (s *AdmissionService) SetCapacity(n int) {
	if n > 0 {
		s.capacity = n
	}
}

// CreateOrJoin либо вливает вызывающего в существующую комнату рядом,
// либо создаёт новую. RoomNotFound/RoomFull на коммите merge не
// считаются ошибками: цель исчезла или заполнилась между сканом и
// коммитом, пользователь всё равно окажется в какой-то комнате.
// Merge не повторяется — проигравший гонку сразу идёт в create.
func (s *AdmissionService) CreateOrJoin(ctx context.Context, req AdmissionRequest) (*AdmissionResult, error) {
	if req.CallerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, domain.ErrNameRequired
	}
	if req.GhostMode && !s.exempt.IsExempt(req.CallerID) {
		return nil, domain.ErrPermissionDenied
	}

	if !req.GhostMode && req.Location != nil {
		cand, err := s.matchmaker.FindNearby(ctx, *req.Location, req.Category, req.Anonymous)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			p := s.newParticipant(cand.ID, req)
			err := s.joiner.Join(ctx, &p)
			switch {
			case err == nil:
				return &AdmissionResult{
					RoomID:  cand.ID,
					Action:  ActionMerged,
					Message: "joined nearby room",
				}, nil
			case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrRoomFull):
				slog.Debug("merge target lost, falling back to create",
					"room", cand.ID, "caller", req.CallerID, "err", err)
			default:
				return nil, fmt.Errorf("join room %s: %w", cand.ID, err)
			}
		}
	}

	room := s.buildRoom(req)
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	action := ActionCreated
	message := "created new room"
	if req.GhostMode {
		action = ActionGhostCreated
		message = "created ghost room"
	}
	return &AdmissionResult{RoomID: room.ID, Action: action, Message: message}, nil
}

// CreateGhost — вход для exempt-вызывающих: merge и геопривязка
// пропускаются безусловно.
func (s *AdmissionService) CreateGhost(ctx context.Context, req AdmissionRequest) (*AdmissionResult, error) {
	req.GhostMode = true
	req.Location = nil
	return s.CreateOrJoin(ctx, req)
}

func (s *AdmissionService) buildRoom(req AdmissionRequest) *domain.Room {
	xp := domain.XPBase
	if req.RegionName != "" {
		xp = domain.XPRegion
	}
	if req.GhostMode {
		xp = domain.XPGhost
	}

	return &domain.Room{
		Name:          req.Name,
		Category:      req.Category,
		AnonymousOnly: req.Anonymous,
		Location:      req.Location,
		Capacity:      s.capacity,
		XPMultiplier:  xp,
		IsActive:      true,
		IsGhost:       req.GhostMode,
		CreatedBy:     req.CallerID,
		Participants:  []domain.Participant{s.newParticipant("", req)},
	}
}

func (s *AdmissionService) newParticipant(roomID string, req AdmissionRequest) domain.Participant {
	name := req.Profile.DisplayName
	if name == "" {
		name = req.Profile.Username
	}
	now := s.now()
	return domain.Participant{
		RoomID:          roomID,
		CallerID:        req.CallerID,
		DisplayName:     name,
		Anonymous:       req.Anonymous,
		Level:           req.Profile.Level,
		Muted:           true,
		ConnectionState: domain.ConnConnected,
		JoinedAt:        now,
		LastActiveAt:    now,
	}
}
