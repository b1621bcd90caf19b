package model

import "time"

// Единица времени - полчаса. Сутки делятся на 48 юнитов (0 = 00:00, 47 = 23:30).
const (
	UnitsPerDay  = 48
	UnitsPerHour = 2
)

// Day numbering follows time.Weekday: 0 = Sunday, 6 = Saturday
type AvailabilitySlot struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Day       int       `json:"day"`        // 0-6
	StartUnit int       `json:"start_unit"` // 0-47
	EndUnit   int       `json:"end_unit"`   // 1-48, всегда > start_unit
	CreatedAt time.Time `json:"created_at"`
}

// DurationUnits возвращает длительность слота в юнитах
func (s *AvailabilitySlot) DurationUnits() int {
	return s.EndUnit - s.StartUnit
}

// Valid проверяет границы дня и юнитов
func (s *AvailabilitySlot) Valid() bool {
	return s.Day >= 0 && s.Day <= 6 &&
		s.StartUnit >= 0 && s.EndUnit <= UnitsPerDay &&
		s.StartUnit < s.EndUnit
}
