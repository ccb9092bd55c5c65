package service

import (
	"context"
	"fmt"

	"github.com/waveroom/admission-service/internal/domain"
	"github.com/waveroom/admission-service/internal/geo"
)

// Радиус слияния, метры. Граница исключающая: кандидат ровно в 100.0 м
// не подходит.
const DefaultMergeRadiusM = 100.0

type CandidateSource interface {
	FindCandidates(ctx context.Context, category string, anonymousOnly bool) ([]domain.RoomSummary, error)
}

// Matchmaker подбирает существующую комнату рядом с вызывающим.
// Чтение советующее: слот не резервируется, финальную проверку делает
// транзакция Join.
type Matchmaker struct {
	source  CandidateSource
	radiusM float64
}

func NewMatchmaker(source CandidateSource, radiusM float64) *Matchmaker {
	if radiusM <= 0 {
		radiusM = DefaultMergeRadiusM
	}
	return &Matchmaker{source: source, radiusM: radiusM}
}

// FindNearby возвращает первую подходящую комнату (first-fit, не
// ближайшую) либо nil, если кандидатов нет. Пропускаются полные
// комнаты, комнаты без геопривязки и те, что дальше радиуса.
func (m *Matchmaker) FindNearby(ctx context.Context, loc domain.Point, category string, anonymousOnly bool) (*domain.RoomSummary, error) {
	rooms, err := m.source.FindCandidates(ctx, category, anonymousOnly)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	for i := range rooms {
		rm := &rooms[i]
		if rm.Full() {
			continue
		}
		if rm.Location == nil {
			continue
		}
		d := geo.Distance(loc.Lat, loc.Lng, rm.Location.Lat, rm.Location.Lng)
		if d >= m.radiusM {
			continue
		}
		return rm, nil
	}
	return nil, nil
}
