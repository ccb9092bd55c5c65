package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/waveroom/admission-service/internal/domain"
	"github.com/waveroom/admission-service/internal/postgres"
	"github.com/waveroom/admission-service/internal/service"
	httpmw "github.com/waveroom/admission-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type AdmissionAPI interface {
	CreateOrJoin(ctx context.Context, req service.AdmissionRequest) (*service.AdmissionResult, error)
	CreateGhost(ctx context.Context, req service.AdmissionRequest) (*service.AdmissionResult, error)
}

type RoomsAPI interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListRooms(ctx context.Context, limit int, cursor string) ([]domain.RoomSummary, string, error)
}

type PresenceAPI interface {
	LeaveRoom(ctx context.Context, roomID, callerID string) error
	TouchHeartbeat(ctx context.Context, roomID, callerID string) error
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
}

type Handler struct {
	admission AdmissionAPI
	rooms     RoomsAPI
	presence  PresenceAPI
}

func NewHandler(admission AdmissionAPI, rooms RoomsAPI, presence PresenceAPI) *Handler {
	return &Handler{
		admission: admission,
		rooms:     rooms,
		presence:  presence,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Наружу уходят только стабильные коды и короткие сообщения,
// внутренности store не светим.
func writeAdmissionError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	case errors.Is(err, domain.ErrNameRequired):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "room name is required"})
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "ghost mode is not allowed for this account"})
	default:
		slog.Error(op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func admissionRequest(callerID string, req CreateOrJoinRequest) service.AdmissionRequest {
	out := service.AdmissionRequest{
		CallerID:  callerID,
		Name:      req.Name,
		Category:  req.Category,
		Anonymous: req.IsAnonymous,
		Profile: service.Profile{
			Username:    req.CreatorProfile.Username,
			DisplayName: req.CreatorProfile.DisplayName,
			Level:       req.CreatorProfile.Level,
		},
		RegionName: req.RegionName,
		GhostMode:  req.IsGhostMode,
	}
	if req.Location != nil {
		out.Location = &domain.Point{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	return out
}

// POST /rooms
func (h *Handler) CreateOrJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateOrJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	callerID := httpmw.CallerIDFromCtx(r.Context())
	res, err := h.admission.CreateOrJoin(r.Context(), admissionRequest(callerID, req))
	if err != nil {
		writeAdmissionError(w, "handler.CreateOrJoinRoom:", err)
		return
	}

	writeJSON(w, http.StatusOK, AdmissionResponse{
		Success: true,
		RoomID:  res.RoomID,
		Action:  res.Action,
		Message: res.Message,
	})
}

// POST /rooms/ghost
func (h *Handler) CreateGhostRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateOrJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	callerID := httpmw.CallerIDFromCtx(r.Context())
	res, err := h.admission.CreateGhost(r.Context(), admissionRequest(callerID, req))
	if err != nil {
		writeAdmissionError(w, "handler.CreateGhostRoom:", err)
		return
	}

	writeJSON(w, http.StatusOK, AdmissionResponse{
		Success: true,
		RoomID:  res.RoomID,
		Action:  res.Action,
		Message: res.Message,
	})
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	rooms, next, err := h.rooms.ListRooms(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListRooms:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms)), NextCursor: next}
	for _, rm := range rooms {
		resp.Items = append(resp.Items, RoomItem{
			ID:        rm.ID,
			Name:      rm.Name,
			Category:  rm.Category,
			Location:  locationDTO(rm.Location),
			Capacity:  rm.Capacity,
			Occupancy: rm.Occupancy,
			CreatedAt: rm.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.rooms.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := RoomDetailResponse{
		ID:            room.ID,
		Name:          room.Name,
		Category:      room.Category,
		AnonymousOnly: room.AnonymousOnly,
		Location:      locationDTO(room.Location),
		Capacity:      room.Capacity,
		XPMultiplier:  room.XPMultiplier,
		IsGhost:       room.IsGhost,
		CreatedAt:     room.CreatedAt,
		Participants:  make([]ParticipantItem, 0, len(room.Participants)),
	}
	for _, p := range room.Participants {
		resp.Participants = append(resp.Participants, participantItem(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	callerID := httpmw.CallerIDFromCtx(r.Context())
	if callerID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	if err := h.presence.LeaveRoom(r.Context(), roomID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotInRoom) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not in room"})
			return
		}
		slog.Error("handler.LeaveRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// POST /rooms/{id}/heartbeat
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	callerID := httpmw.CallerIDFromCtx(r.Context())
	if callerID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	if err := h.presence.TouchHeartbeat(r.Context(), roomID, callerID); err != nil {
		if errors.Is(err, domain.ErrNotInRoom) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not in room"})
			return
		}
		slog.Error("handler.Heartbeat:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	items, err := h.presence.ListParticipants(r.Context(), roomID)
	if err != nil {
		slog.Error("handler.GetParticipants:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := make([]ParticipantItem, 0, len(items))
	for _, p := range items {
		resp = append(resp, participantItem(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func locationDTO(p *domain.Point) *LocationDTO {
	if p == nil {
		return nil
	}
	return &LocationDTO{Lat: p.Lat, Lng: p.Lng}
}

func participantItem(p domain.Participant) ParticipantItem {
	return ParticipantItem{
		CallerID:        p.CallerID,
		DisplayName:     p.DisplayName,
		IsAnonymous:     p.Anonymous,
		Level:           p.Level,
		IsSpeaking:      p.Speaking,
		IsMuted:         p.Muted,
		ConnectionState: p.ConnectionState,
		JoinedAt:        p.JoinedAt,
		LastActiveAt:    p.LastActiveAt,
	}
}
