package matching

import (
	"sort"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

// Suggestion - конкретное двухчасовое окно, выбранное внутри пересечения
type Suggestion struct {
	Day           int `json:"day"`
	StartUnit     int `json:"startUnit"`
	EndUnit       int `json:"endUnit"`
	DurationUnits int `json:"durationUnits"`
	Score         int `json:"score"`
}

// Константы скоринга. Подобраны вручную, важен только детерминизм итогового
// порядка, а не сами значения.
const (
	durationRewardCap = 8 // больше 4 часов не премируем

	lateMorningStart = 18 // 09:00
	lateMorningEnd   = 22 // 11:00
	morningStart     = 12 // 06:00
	eveningStart     = 34 // 17:00
	eveningEnd       = 40 // 20:00
	earlyCutoff      = 12 // до 06:00
	lateCutoff       = 44 // после 22:00

	lateMorningBonus = 25
	windowBonus      = 20
	offHoursPenalty  = -20
	weekendBonus     = 15
	midweekBonus     = 10
)

// Suggest выбирает до двух сессий из пересечений: фильтрует короткие окна,
// считает очки и жадно набирает дни, не равные и не соседние (циклически,
// воскресенье и суббота тоже соседи) уже выбранным.
func Suggest(overlaps []Overlap) []Suggestion {
	var candidates []Suggestion
	for _, o := range overlaps {
		if o.DurationUnits < model.MinSessionUnits {
			continue
		}

		// Сессия всегда 2 часа, прижата к концу свободного окна
		start := o.EndUnit - model.MinSessionUnits
		if o.StartUnit > start {
			start = o.StartUnit
		}

		c := Suggestion{
			Day:           o.Day,
			StartUnit:     start,
			EndUnit:       start + model.MinSessionUnits,
			DurationUnits: model.MinSessionUnits,
			Score:         score(o, start),
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Day != candidates[j].Day {
			return candidates[i].Day < candidates[j].Day
		}
		return candidates[i].StartUnit < candidates[j].StartUnit
	})

	var picked []Suggestion
	var usedDays []int
	for _, c := range candidates {
		if daysConflict(usedDays, c.Day) {
			continue
		}
		picked = append(picked, c)
		usedDays = append(usedDays, c.Day)
		if len(picked) == 2 {
			break
		}
	}

	return picked
}

// score считает очки пересечения; startUnit - начало уже размещённой сессии
func score(o Overlap, startUnit int) int {
	duration := o.DurationUnits
	if duration > durationRewardCap {
		duration = durationRewardCap
	}
	s := duration * 10

	switch {
	case startUnit >= lateMorningStart && startUnit < lateMorningEnd:
		s += lateMorningBonus
	case startUnit >= morningStart && startUnit < lateMorningStart:
		s += windowBonus
	case startUnit >= eveningStart && startUnit < eveningEnd:
		s += windowBonus
	case startUnit < earlyCutoff || startUnit >= lateCutoff:
		s += offHoursPenalty
	}

	if o.Day == 0 || o.Day == 6 {
		s += weekendBonus
	}
	if o.Day >= 2 && o.Day <= 4 {
		s += midweekBonus
	}

	return s
}

// daysConflict проверяет совпадение или циклическое соседство дней недели
func daysConflict(used []int, day int) bool {
	for _, u := range used {
		diff := day - u
		if diff < 0 {
			diff = -diff
		}
		if diff == 0 || diff == 1 || diff == 6 {
			return true
		}
	}
	return false
}
