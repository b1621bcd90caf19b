package matching

import (
	"sort"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

// Overlap представляет непрерывный интервал, в который оба партнёра свободны
type Overlap struct {
	Day           int `json:"day"`
	StartUnit     int `json:"startUnit"`
	EndUnit       int `json:"endUnit"`
	DurationUnits int `json:"durationUnits"`
}

// Overlaps вычисляет пересечение свободного времени двух пользователей.
// Результат сгруппирован по дням и слит: соседние/пересекающиеся интервалы
// одного дня объединяются. Возвращаются все пересечения, включая короткие -
// фильтрация по минимальной длительности остаётся за подборщиком сессий.
func Overlaps(a, b []model.AvailabilitySlot) []Overlap {
	byDayA := groupByDay(a)
	byDayB := groupByDay(b)

	var raw []Overlap
	for day, slotsA := range byDayA {
		slotsB, ok := byDayB[day]
		if !ok {
			continue
		}
		// Попарное пересечение: max(start) / min(end)
		for _, sa := range slotsA {
			for _, sb := range slotsB {
				start := max(sa.StartUnit, sb.StartUnit)
				end := min(sa.EndUnit, sb.EndUnit)
				if start < end {
					raw = append(raw, Overlap{
						Day:           day,
						StartUnit:     start,
						EndUnit:       end,
						DurationUnits: end - start,
					})
				}
			}
		}
	}

	return mergeOverlaps(raw)
}

// TotalUnits суммирует длительность всех пересечений
func TotalUnits(overlaps []Overlap) int {
	total := 0
	for _, o := range overlaps {
		total += o.DurationUnits
	}
	return total
}

func groupByDay(slots []model.AvailabilitySlot) map[int][]model.AvailabilitySlot {
	byDay := make(map[int][]model.AvailabilitySlot)
	for _, s := range slots {
		byDay[s.Day] = append(byDay[s.Day], s)
	}
	return byDay
}

// mergeOverlaps сливает пересекающиеся и смежные интервалы одного дня
func mergeOverlaps(overlaps []Overlap) []Overlap {
	if len(overlaps) == 0 {
		return nil
	}

	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].Day != overlaps[j].Day {
			return overlaps[i].Day < overlaps[j].Day
		}
		return overlaps[i].StartUnit < overlaps[j].StartUnit
	})

	merged := []Overlap{overlaps[0]}
	for _, cur := range overlaps[1:] {
		last := &merged[len(merged)-1]

		// Смежный или пересекающийся интервал того же дня расширяет предыдущий
		if cur.Day == last.Day && cur.StartUnit <= last.EndUnit {
			if cur.EndUnit > last.EndUnit {
				last.EndUnit = cur.EndUnit
				last.DurationUnits = last.EndUnit - last.StartUnit
			}
			continue
		}
		merged = append(merged, cur)
	}

	return merged
}
