// Package achievement вычисляет бейджи студента по его журналу очков
// (AchievementEngine). Все правила - чистые функции без внешнего состояния.
package achievement

import (
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const (
	IDFirst    = "ach_first"
	ID500      = "ach_500"
	ID1000     = "ach_1000"
	IDLeetCode = "ach_lc"
	IDGitHub   = "ach_gh"
)

// rule - условие получения одного бейджа.
type rule struct {
	badge student.Badge
	match func(total int, log []student.PointEntry) bool
}

// catalog задаёт порядок бейджей в результате. Правила независимы.
var catalog = []rule{
	{
		badge: student.Badge{ID: IDFirst, Name: "First Steps", Description: "Earned your first points", Icon: "Footprints"},
		match: func(_ int, log []student.PointEntry) bool { return len(log) >= 1 },
	},
	{
		badge: student.Badge{ID: ID500, Name: "Rising Star", Description: "Reached 500 points", Icon: "Star"},
		match: func(total int, _ []student.PointEntry) bool { return total >= 500 },
	},
	{
		badge: student.Badge{ID: ID1000, Name: "Top Performer", Description: "Reached 1000 points", Icon: "Trophy"},
		match: func(total int, _ []student.PointEntry) bool { return total >= 1000 },
	},
	{
		badge: student.Badge{ID: IDLeetCode, Name: "Code Warrior", Description: "Solved a LeetCode problem", Icon: "Code"},
		match: func(_ int, log []student.PointEntry) bool { return hasSource(log, student.SourceLeetCode) },
	},
	{
		badge: student.Badge{ID: IDGitHub, Name: "Open Source Contributor", Description: "Contributed on GitHub", Icon: "Github"},
		match: func(_ int, log []student.PointEntry) bool { return hasSource(log, student.SourceGitHub) },
	},
}

func hasSource(log []student.PointEntry, source student.Source) bool {
	for _, e := range log {
		if e.Source == source {
			return true
		}
	}
	return false
}

// Catalog возвращает все бейджи в каноническом порядке.
func Catalog() []student.Badge {
	out := make([]student.Badge, len(catalog))
	for i, r := range catalog {
		out[i] = r.badge
	}
	return out
}

// Lookup возвращает бейдж каталога по идентификатору.
func Lookup(id string) (student.Badge, bool) {
	for _, r := range catalog {
		if r.badge.ID == id {
			return r.badge, true
		}
	}
	return student.Badge{}, false
}

// Compute возвращает все бейджи, условия которых выполнены, в порядке каталога.
// Функция тотальна: пустой журнал, ноль и отрицательная сумма допустимы.
func Compute(totalPoints int, log []student.PointEntry) []student.Badge {
	out := make([]student.Badge, 0, len(catalog))
	for _, r := range catalog {
		if r.match(totalPoints, log) {
			out = append(out, r.badge)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine реализует student.AchievementEvaluator.
//
// По умолчанию бейджи не "липкие": списание очков ниже порога отзывает бейдж.
// В режиме Sticky результат объединяется с ранее выданными бейджами.
type Engine struct {
	Sticky bool
}

// NewEngine создаёт движок.
func NewEngine(sticky bool) *Engine {
	return &Engine{Sticky: sticky}
}

// Evaluate вычисляет бейджи после мутации журнала.
func (e *Engine) Evaluate(totalPoints int, log []student.PointEntry, previous []student.Badge) []student.Badge {
	computed := Compute(totalPoints, log)
	if !e.Sticky || len(previous) == 0 {
		return computed
	}

	held := make(map[string]bool, len(previous)+len(computed))
	for _, b := range previous {
		held[b.ID] = true
	}
	for _, b := range computed {
		held[b.ID] = true
	}

	out := make([]student.Badge, 0, len(held))
	for _, r := range catalog {
		if held[r.badge.ID] {
			out = append(out, r.badge)
			delete(held, r.badge.ID)
		}
	}
	// Бейджи, которых больше нет в каталоге, сохраняются в исходном порядке.
	for _, b := range previous {
		if held[b.ID] {
			out = append(out, b)
			delete(held, b.ID)
		}
	}
	return out
}

var _ student.AchievementEvaluator = (*Engine)(nil)
