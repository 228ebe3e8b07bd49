package leaderboard

import (
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - материализованный лидерборд на момент GeneratedAt. Хранится в
// кеше и отдаётся без повторного чтения всех студентов.
type Snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Entries     []Entry   `json:"entries"`

	byIdentity map[shared.Identity]int
}

// NewSnapshot создаёт снимок из уже пронумерованных записей.
func NewSnapshot(entries []Entry, generatedAt time.Time) *Snapshot {
	if entries == nil {
		entries = []Entry{}
	}
	s := &Snapshot{GeneratedAt: generatedAt.UTC(), Entries: entries}
	s.RebuildIndex()
	return s
}

// RebuildIndex перестраивает индекс после десериализации.
func (s *Snapshot) RebuildIndex() {
	s.byIdentity = make(map[shared.Identity]int, len(s.Entries))
	for i, e := range s.Entries {
		s.byIdentity[e.Identity] = i
	}
}

// Count возвращает количество записей.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// IsEmpty возвращает true, если лидерборд пуст.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// RankOf возвращает место студента или shared.ErrNotRanked.
func (s *Snapshot) RankOf(id shared.Identity) (shared.Rank, error) {
	if s.byIdentity != nil {
		if idx, ok := s.byIdentity[id]; ok {
			return s.Entries[idx].Rank, nil
		}
		return shared.Unranked, shared.ErrNotRanked
	}
	for _, e := range s.Entries {
		if e.Identity == id {
			return e.Rank, nil
		}
	}
	return shared.Unranked, shared.ErrNotRanked
}

// Search фильтрует записи по имени, сохраняя порядок мест.
func (s *Snapshot) Search(query string) []Entry {
	out := make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if MatchesName(e.Name, query) {
			out = append(out, e)
		}
	}
	return out
}

// String возвращает строковое представление для логирования.
func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot{entries: %d, generated: %s}", len(s.Entries), s.GeneratedAt.Format(time.RFC3339))
}
