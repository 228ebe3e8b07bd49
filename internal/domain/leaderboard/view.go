// Package leaderboard содержит доменную модель лидерборда 1board
// (LeaderboardView): ранжирование, позиция студента и поиск по имени.
package leaderboard

import (
	"sort"
	"strings"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config задаёт параметры построения лидерборда.
type Config struct {
	// AdminIdentity исключается из ранжирования до сортировки: его очки не
	// занимают место. Пустое значение отключает исключение.
	AdminIdentity shared.Identity
}

// View строит публичное ранжирование студентов.
type View struct {
	cfg Config
}

// NewView создаёт View с указанной конфигурацией.
func NewView(cfg Config) *View {
	return &View{cfg: cfg}
}

// IsExcluded сообщает, исключён ли identity из лидерборда.
func (v *View) IsExcluded(id shared.Identity) bool {
	return v.cfg.AdminIdentity != "" && id == v.cfg.AdminIdentity
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Rank возвращает студентов по убыванию TotalPoints без администратора.
// При равенстве очков порядок определяется identity по возрастанию. Входной
// срез не изменяется.
func (v *View) Rank(students []*student.Student) []*student.Student {
	ranked := make([]*student.Student, 0, len(students))
	for _, s := range students {
		if s == nil || v.IsExcluded(s.Identity) {
			continue
		}
		ranked = append(ranked, s)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return ranked[i].Identity < ranked[j].Identity
	})
	return ranked
}

// RankOf возвращает позицию identity (с единицы) в результате Rank.
// Возвращает shared.ErrNotRanked (NotFound), если студента нет или это
// администратор.
func (v *View) RankOf(students []*student.Student, id shared.Identity) (shared.Rank, error) {
	for i, s := range v.Rank(students) {
		if s.Identity == id {
			return shared.Rank(i + 1), nil
		}
	}
	return shared.Unranked, shared.ErrNotRanked
}

// Search фильтрует студентов по подстроке имени без учёта регистра.
// Порядок входа сохраняется, повторной сортировки нет. Пустой запрос
// возвращает всех.
func (v *View) Search(students []*student.Student, query string) []*student.Student {
	out := make([]*student.Student, 0, len(students))
	for _, s := range students {
		if s != nil && MatchesName(s.Name, query) {
			out = append(out, s)
		}
	}
	return out
}

// MatchesName проверяет вхождение query в name без учёта регистра.
func MatchesName(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS
// ══════════════════════════════════════════════════════════════════════════════

// Entry - строка лидерборда для отображения.
type Entry struct {
	Rank         shared.Rank     `json:"rank"`
	Identity     shared.Identity `json:"identity"`
	Name         string          `json:"name"`
	AvatarURL    string          `json:"avatarUrl"`
	TotalPoints  int             `json:"totalPoints"`
	Achievements []student.Badge `json:"achievements"`
}

// Standings ранжирует студентов и нумерует места с единицы.
func (v *View) Standings(students []*student.Student) []Entry {
	ranked := v.Rank(students)
	out := make([]Entry, len(ranked))
	for i, s := range ranked {
		badges := s.Achievements
		if badges == nil {
			badges = []student.Badge{}
		}
		out[i] = Entry{
			Rank:         shared.Rank(i + 1),
			Identity:     s.Identity,
			Name:         s.Name,
			AvatarURL:    s.AvatarURL,
			TotalPoints:  s.TotalPoints,
			Achievements: badges,
		}
	}
	return out
}
