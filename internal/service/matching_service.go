package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/matching"
	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"go.uber.org/zap"
)

// OverlapResult - ответ на запрос пересечения доступности
type OverlapResult struct {
	OverlappingSlots  []matching.Overlap `json:"overlappingSlots"`
	TotalOverlapHours float64            `json:"totalOverlapHours"`
}

// SuggestedSession - предложенная сессия с конкретной датой
type SuggestedSession struct {
	Day           int       `json:"day"`
	Date          time.Time `json:"date"`
	StartUnit     int       `json:"startUnit"`
	EndUnit       int       `json:"endUnit"`
	DurationUnits int       `json:"durationUnits"`
	Score         int       `json:"score"`
}

// SuggestionResult - ответ на запрос подбора сессий
type SuggestionResult struct {
	Suggestions []SuggestedSession `json:"suggestions"`
	Message     string             `json:"message"`
}

type MatchingService struct {
	userStore UserStore
	slotStore AvailabilityStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewMatchingService(
	userStore UserStore,
	slotStore AvailabilityStore,
	logger *zap.Logger,
) *MatchingService {
	return &MatchingService{
		userStore: userStore,
		slotStore: slotStore,
		logger:    logger,
		now:       time.Now,
	}
}

// Overlap вычисляет пересечение свободного времени пары.
// Пустое пересечение - не ошибка.
func (s *MatchingService) Overlap(ctx context.Context, userAID, userBID int64) (*OverlapResult, error) {
	slotsA, slotsB, err := s.loadSlots(ctx, userAID, userBID)
	if err != nil {
		return nil, err
	}

	overlaps := matching.Overlaps(slotsA, slotsB)

	return &OverlapResult{
		OverlappingSlots:  overlaps,
		TotalOverlapHours: float64(matching.TotalUnits(overlaps)) / float64(model.UnitsPerHour),
	}, nil
}

// Suggestions подбирает до двух сессий в несоседние дни и привязывает их
// к ближайшим датам
func (s *MatchingService) Suggestions(ctx context.Context, userAID, userBID int64) (*SuggestionResult, error) {
	slotsA, slotsB, err := s.loadSlots(ctx, userAID, userBID)
	if err != nil {
		return nil, err
	}

	overlaps := matching.Overlaps(slotsA, slotsB)
	picked := matching.Suggest(overlaps)

	if len(picked) == 0 {
		return &SuggestionResult{
			Suggestions: []SuggestedSession{},
			Message:     noSuggestionsReason(overlaps),
		}, nil
	}

	now := s.now()
	suggestions := make([]SuggestedSession, 0, len(picked))
	for _, p := range picked {
		suggestions = append(suggestions, SuggestedSession{
			Day:           p.Day,
			Date:          nextWeekday(now, p.Day),
			StartUnit:     p.StartUnit,
			EndUnit:       p.EndUnit,
			DurationUnits: p.DurationUnits,
			Score:         p.Score,
		})
	}

	return &SuggestionResult{
		Suggestions: suggestions,
		Message:     fmt.Sprintf("found %d suggested sessions", len(suggestions)),
	}, nil
}

func (s *MatchingService) loadSlots(ctx context.Context, userAID, userBID int64) ([]model.AvailabilitySlot, []model.AvailabilitySlot, error) {
	userA, err := s.userStore.GetByID(ctx, userAID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if userA == nil {
		return nil, nil, fmt.Errorf("%w: user %d", ErrNotFound, userAID)
	}

	userB, err := s.userStore.GetByID(ctx, userBID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if userB == nil {
		return nil, nil, fmt.Errorf("%w: user %d", ErrNotFound, userBID)
	}

	slotsA, err := s.slotStore.GetByUserID(ctx, userAID)
	if err != nil {
		return nil, nil, fmt.Errorf("get slots: %w", err)
	}

	slotsB, err := s.slotStore.GetByUserID(ctx, userBID)
	if err != nil {
		return nil, nil, fmt.Errorf("get slots: %w", err)
	}

	return slotsA, slotsB, nil
}

func noSuggestionsReason(overlaps []matching.Overlap) string {
	if len(overlaps) == 0 {
		return "no overlapping availability found"
	}
	return "overlapping time found, but no window is long enough for a 2 hour session"
}

// nextWeekday возвращает ближайшую дату с нужным днём недели, строго после
// сегодняшнего дня
func nextWeekday(now time.Time, day int) time.Time {
	days := (day - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
