package student

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINT LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// DateLayout - формат даты, который журнал присваивает новым записям.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// maxSafePoints - граница точного представления целых во float64.
const maxSafePoints = 1 << 53

// PointEntry - одна запись журнала очков. Записи никогда не изменяются после
// добавления.
type PointEntry struct {
	// ID может отсутствовать у старых записей.
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Source      Source `json:"source"`
}

// PointEntryInput - входные данные для Append до валидации.
type PointEntryInput struct {
	ID          string
	Date        string
	Description string
	// Points приходит как float64, чтобы отклонять NaN, бесконечность и дроби.
	Points float64
	Source string
}

// ChronologicalEntry - запись журнала с разобранной датой и отображаемым
// названием источника.
type ChronologicalEntry struct {
	PointEntry
	SourceLabel string    `json:"sourceLabel"`
	At          time.Time `json:"at"`
	Unparsable  bool      `json:"unparsable"`
}

// validate превращает сырой ввод в запись без побочных эффектов.
func (in PointEntryInput) validate(now time.Time) (PointEntry, error) {
	source, err := ParseSource(in.Source)
	if err != nil {
		return PointEntry{}, err
	}

	p := in.Points
	if math.IsNaN(p) || math.IsInf(p, 0) || p != math.Trunc(p) || math.Abs(p) > maxSafePoints {
		return PointEntry{}, shared.ErrNonFinitePoints
	}

	entry := PointEntry{
		ID:          in.ID,
		Date:        in.Date,
		Description: in.Description,
		Points:      int(p),
		Source:      source,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = now.UTC().Format(DateLayout)
	}
	return entry, nil
}

// Append добавляет запись в конец журнала, увеличивает TotalPoints и заново
// вычисляет бейджи. Отрицательные очки допустимы. Переданный ID должен быть
// новым для журнала. При любой ошибке студент не изменяется.
func (s *Student) Append(in PointEntryInput, eval AchievementEvaluator, now time.Time) (PointEntry, error) {
	if eval == nil {
		return PointEntry{}, shared.NewDomainError("student", "Append", shared.ErrInvalidInput, "achievement evaluator is required")
	}

	entry, err := in.validate(now)
	if err != nil {
		return PointEntry{}, err
	}
	if in.ID != "" && s.HasEntry(in.ID) {
		return PointEntry{}, shared.ErrDuplicateEntryID
	}

	s.PointsLog = append(s.PointsLog, entry)
	s.TotalPoints += entry.Points
	s.Achievements = eval.Evaluate(s.TotalPoints, s.PointsLog, s.Achievements)
	s.UpdatedAt = now.UTC()

	return entry, nil
}

// HasEntry сообщает, есть ли в журнале запись с данным ID.
func (s *Student) HasEntry(id string) bool {
	for _, e := range s.PointsLog {
		if e.ID == id {
			return true
		}
	}
	return false
}

// ListChronological возвращает записи от новых к старым. При равной дате
// позже добавленная запись идёт раньше. Записи с неразборчивой датой идут в
// конце в порядке добавления и помечены Unparsable.
func (s *Student) ListChronological() []ChronologicalEntry {
	type positioned struct {
		ChronologicalEntry
		seq int
	}

	sorted := make([]positioned, len(s.PointsLog))
	for i, e := range s.PointsLog {
		at, ok := ParseDate(e.Date)
		entry := ChronologicalEntry{PointEntry: e, SourceLabel: e.Source.Label(), At: at, Unparsable: !ok}
		sorted[i] = positioned{entry, i}
	}

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Unparsable != b.Unparsable:
			return !a.Unparsable
		case a.Unparsable:
			return a.seq < b.seq
		case !a.At.Equal(b.At):
			return a.At.After(b.At)
		default:
			return a.seq > b.seq
		}
	})

	out := make([]ChronologicalEntry, len(sorted))
	for i, p := range sorted {
		out[i] = p.ChronologicalEntry
	}
	return out
}

// ParseDate разбирает ISO-8601 дату записи. Даты без зоны считаются UTC.
func ParseDate(raw string) (time.Time, bool) {
	return shared.ParseTimestamp(raw)
}

// SumPoints возвращает сумму очков по журналу.
func SumPoints(log []PointEntry) int {
	total := 0
	for _, e := range log {
		total += e.Points
	}
	return total
}
