package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/waveroom/admission-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreator struct {
	mu      sync.Mutex
	created []*domain.Room
	err     error
}

func (c *stubCreator) Create(_ context.Context, room *domain.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	room.ID = "created-" + strconv.Itoa(len(c.created)+1)
	c.created = append(c.created, room)
	return nil
}

// scriptJoiner отдаёт ошибки по одной на вызов; исчерпав список — nil.
type scriptJoiner struct {
	mu     sync.Mutex
	errs   []error
	joined []domain.Participant
}

func (j *scriptJoiner) Join(_ context.Context, p *domain.Participant) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.joined = append(j.joined, *p)
	if len(j.errs) == 0 {
		return nil
	}
	err := j.errs[0]
	j.errs = j.errs[1:]
	return err
}

type allowAll struct{}

func (allowAll) IsExempt(string) bool { return true }

type denyAll struct{}

func (denyAll) IsExempt(string) bool { return false }

func newTestService(src CandidateSource, creator RoomCreator, joiner Joiner, exempt ExemptionPolicy) *AdmissionService {
	return NewAdmissionService(creator, joiner, NewMatchmaker(src, 0), exempt)
}

func baseRequest() AdmissionRequest {
	return AdmissionRequest{
		CallerID:  "caller-1",
		Name:      "Kiez Talk",
		Category:  "public",
		Anonymous: false,
		Location:  &domain.Point{Lat: 52.52, Lng: 13.40},
		Profile:   Profile{Username: "alice", DisplayName: "Alice", Level: 4},
	}
}

func TestCreateOrJoin_MergesNearbyRoom(t *testing.T) {
	// активная комната в ~60м с 3/8 участниками
	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "room-60m",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 3,
	}}}
	creator := &stubCreator{}
	joiner := &scriptJoiner{}
	svc := newTestService(src, creator, joiner, denyAll{})

	res, err := svc.CreateOrJoin(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionMerged, res.Action)
	assert.Equal(t, "room-60m", res.RoomID)
	assert.Empty(t, creator.created, "merge must not create a room")

	require.Len(t, joiner.joined, 1)
	p := joiner.joined[0]
	assert.Equal(t, "room-60m", p.RoomID)
	assert.Equal(t, "caller-1", p.CallerID)
	assert.True(t, p.Muted)
	assert.Equal(t, domain.ConnConnected, p.ConnectionState)
	assert.Equal(t, p.JoinedAt, p.LastActiveAt)
}

func TestCreateOrJoin_NoCandidate_CreatesRoom(t *testing.T) {
	creator := &stubCreator{}
	svc := newTestService(&stubSource{}, creator, &scriptJoiner{}, denyAll{})

	res, err := svc.CreateOrJoin(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)

	require.Len(t, creator.created, 1)
	room := creator.created[0]
	assert.Equal(t, "Kiez Talk", room.Name)
	assert.Equal(t, 8, room.Capacity)
	assert.Equal(t, domain.XPBase, room.XPMultiplier)
	assert.True(t, room.IsActive)
	assert.False(t, room.IsGhost)
	assert.Equal(t, "caller-1", room.CreatedBy)
	require.Len(t, room.Participants, 1)
	assert.Equal(t, "caller-1", room.Participants[0].CallerID)
}

func TestCreateOrJoin_NoLocation_SkipsMatchmaking(t *testing.T) {
	src := &stubSource{rooms: []domain.RoomSummary{{ID: "near"}}}
	creator := &stubCreator{}
	svc := newTestService(src, creator, &scriptJoiner{}, denyAll{})

	req := baseRequest()
	req.Location = nil

	res, err := svc.CreateOrJoin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Zero(t, src.calls, "finder must not run without a location")
}

func TestCreateOrJoin_RegionMultiplier(t *testing.T) {
	creator := &stubCreator{}
	svc := newTestService(&stubSource{}, creator, &scriptJoiner{}, denyAll{})

	req := baseRequest()
	req.Location = nil
	req.RegionName = "kreuzberg"

	_, err := svc.CreateOrJoin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.XPRegion, creator.created[0].XPMultiplier)
}

func TestCreateOrJoin_FallbackWhenTargetFull(t *testing.T) {
	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "filling-up",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 7, // сканер видит место, но к коммиту оно занято
	}}}
	creator := &stubCreator{}
	joiner := &scriptJoiner{errs: []error{domain.ErrRoomFull}}
	svc := newTestService(src, creator, joiner, denyAll{})

	res, err := svc.CreateOrJoin(context.Background(), baseRequest())
	require.NoError(t, err, "race loser must not see an error")
	assert.Equal(t, ActionCreated, res.Action)
	require.Len(t, joiner.joined, 1, "merge is not retried")
	require.Len(t, creator.created, 1)
}

func TestCreateOrJoin_FallbackWhenTargetVanished(t *testing.T) {
	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "gone",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 1,
	}}}
	creator := &stubCreator{}
	joiner := &scriptJoiner{errs: []error{domain.ErrRoomNotFound}}
	svc := newTestService(src, creator, joiner, denyAll{})

	res, err := svc.CreateOrJoin(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, res.Action)
}

func TestCreateOrJoin_TxAbortedSurfaces(t *testing.T) {
	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "contended",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 1,
	}}}
	creator := &stubCreator{}
	joiner := &scriptJoiner{errs: []error{domain.ErrTxAborted}}
	svc := newTestService(src, creator, joiner, denyAll{})

	_, err := svc.CreateOrJoin(context.Background(), baseRequest())
	require.ErrorIs(t, err, domain.ErrTxAborted)
	assert.Empty(t, creator.created)
}

func TestCreateOrJoin_Validation(t *testing.T) {
	svc := newTestService(&stubSource{}, &stubCreator{}, &scriptJoiner{}, denyAll{})

	req := baseRequest()
	req.CallerID = ""
	_, err := svc.CreateOrJoin(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	req = baseRequest()
	req.Name = "   "
	_, err = svc.CreateOrJoin(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrNameRequired)

	req = baseRequest()
	req.GhostMode = true
	_, err = svc.CreateOrJoin(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestCreateGhost_BypassesMatchmaking(t *testing.T) {
	// рядом есть подходящая комната — ghost всё равно создаётся
	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "nearby",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 1,
	}}}
	creator := &stubCreator{}
	svc := newTestService(src, creator, &scriptJoiner{}, allowAll{})

	res, err := svc.CreateGhost(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, ActionGhostCreated, res.Action)
	assert.Zero(t, src.calls, "ghost path must not scan candidates")

	require.Len(t, creator.created, 1)
	room := creator.created[0]
	assert.True(t, room.IsGhost)
	assert.Equal(t, domain.XPGhost, room.XPMultiplier)
	assert.Nil(t, room.Location, "ghost room ignores location")
}

func TestCreateGhost_RegionDoesNotOverrideGhostMultiplier(t *testing.T) {
	creator := &stubCreator{}
	svc := newTestService(&stubSource{}, creator, &scriptJoiner{}, allowAll{})

	req := baseRequest()
	req.RegionName = "kreuzberg"

	_, err := svc.CreateGhost(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.XPGhost, creator.created[0].XPMultiplier)
}

// Гонка за последний слот: побеждает ровно один, остальные молча
// уезжают в создание новой комнаты.
func TestCreateOrJoin_CapacityRace(t *testing.T) {
	const callers = 5

	src := &stubSource{rooms: []domain.RoomSummary{{
		ID:        "last-slot",
		Location:  &domain.Point{Lat: 52.5205, Lng: 13.4005},
		Capacity:  8,
		Occupancy: 7,
	}}}
	creator := &stubCreator{}
	joiner := &scriptJoiner{errs: []error{
		nil, // первый коммит проходит
		domain.ErrRoomFull, domain.ErrRoomFull, domain.ErrRoomFull, domain.ErrRoomFull,
	}}
	svc := newTestService(src, creator, joiner, denyAll{})

	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req := baseRequest()
			req.CallerID = "caller-" + strconv.Itoa(n)
			res, err := svc.CreateOrJoin(context.Background(), req)
			if !assert.NoError(t, err) {
				results <- "error"
				return
			}
			results <- res.Action
		}(i)
	}
	wg.Wait()
	close(results)

	merged, created := 0, 0
	for action := range results {
		switch action {
		case ActionMerged:
			merged++
		case ActionCreated:
			created++
		}
	}
	assert.Equal(t, 1, merged, "exactly one caller wins the slot")
	assert.Equal(t, callers-1, created)
	assert.Len(t, creator.created, callers-1)
}
