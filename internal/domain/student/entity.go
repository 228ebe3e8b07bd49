package student

import (
	"strings"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// ══════════════════════════════════════════════════════════════════════════════

// Badge - бейдж (достижение), выведенный из состояния журнала.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Icon - символическая ссылка на иконку, для домена непрозрачна.
	Icon string `json:"icon"`
}

// AchievementEvaluator вычисляет набор бейджей по сумме и журналу.
// previous - бейджи, сохранённые до мутации.
type AchievementEvaluator interface {
	Evaluate(totalPoints int, log []PointEntry, previous []Badge) []Badge
}

// BadgeIDs возвращает идентификаторы бейджей в исходном порядке.
func BadgeIDs(badges []Badge) []string {
	ids := make([]string, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

// DiffBadges сравнивает два набора и возвращает выданные и отозванные бейджи.
func DiffBadges(before, after []Badge) (granted, revoked []string) {
	had := make(map[string]bool, len(before))
	for _, b := range before {
		had[b.ID] = true
	}
	has := make(map[string]bool, len(after))
	for _, b := range after {
		has[b.ID] = true
		if !had[b.ID] {
			granted = append(granted, b.ID)
		}
	}
	for _, b := range before {
		if !has[b.ID] {
			revoked = append(revoked, b.ID)
		}
	}
	return granted, revoked
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultName присваивается, если провайдер авторизации не прислал имя.
	DefaultName = "User"
	// DefaultAvatarURL - заглушка аватара.
	DefaultAvatarURL = "https://placehold.co/200x200.png"
)

// Student - одна запись на identity.
type Student struct {
	// Identity - стабильный идентификатор от провайдера авторизации.
	Identity shared.Identity `json:"identity"`

	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`

	GitHubURL   string `json:"githubUrl,omitempty"`
	LinkedInURL string `json:"linkedinUrl,omitempty"`

	// TotalPoints всегда равен сумме очков журнала.
	TotalPoints int `json:"totalPoints"`

	// PointsLog упорядочен по времени добавления, не по дате.
	PointsLog []PointEntry `json:"pointsLog"`

	// Achievements - кеш результата AchievementEvaluator на момент последней мутации.
	Achievements []Badge `json:"achievements"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewStudentParams содержит параметры для создания студента.
type NewStudentParams struct {
	Identity  string
	Name      string
	AvatarURL string
}

// NewStudent создаёт студента с пустым журналом.
func NewStudent(params NewStudentParams, now time.Time) (*Student, error) {
	id, err := shared.NewIdentity(params.Identity)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = DefaultName
	}
	avatar := strings.TrimSpace(params.AvatarURL)
	if avatar == "" {
		avatar = DefaultAvatarURL
	}

	now = now.UTC()
	return &Student{
		Identity:     id,
		Name:         name,
		AvatarURL:    avatar,
		PointsLog:    []PointEntry{},
		Achievements: []Badge{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SyncIdentity обновляет имя и аватар из данных провайдера авторизации.
// Пустые значения игнорируются. Журнал не затрагивается.
func (s *Student) SyncIdentity(name, avatarURL string, now time.Time) bool {
	changed := false
	if n := strings.TrimSpace(name); n != "" && n != s.Name {
		s.Name = n
		changed = true
	}
	if a := strings.TrimSpace(avatarURL); a != "" && a != s.AvatarURL {
		s.AvatarURL = a
		changed = true
	}
	if changed {
		s.UpdatedAt = now.UTC()
	}
	return changed
}

// ProfileUpdate - изменения профиля; nil означает "не менять".
type ProfileUpdate struct {
	Name        *string
	GitHubURL   *string
	LinkedInURL *string
}

// UpdateProfile применяет изменения профиля и возвращает имена изменённых полей.
func (s *Student) UpdateProfile(u ProfileUpdate, now time.Time) ([]string, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, shared.NewDomainError("student", "UpdateProfile", shared.ErrEmptyValue, "name cannot be empty")
	}

	var fields []string
	if u.Name != nil && strings.TrimSpace(*u.Name) != s.Name {
		s.Name = strings.TrimSpace(*u.Name)
		fields = append(fields, "name")
	}
	if u.GitHubURL != nil && strings.TrimSpace(*u.GitHubURL) != s.GitHubURL {
		s.GitHubURL = strings.TrimSpace(*u.GitHubURL)
		fields = append(fields, "githubUrl")
	}
	if u.LinkedInURL != nil && strings.TrimSpace(*u.LinkedInURL) != s.LinkedInURL {
		s.LinkedInURL = strings.TrimSpace(*u.LinkedInURL)
		fields = append(fields, "linkedinUrl")
	}
	if len(fields) > 0 {
		s.UpdatedAt = now.UTC()
	}
	return fields, nil
}

// CheckInvariant проверяет, что TotalPoints совпадает с суммой журнала.
func (s *Student) CheckInvariant() bool {
	return s.TotalPoints == SumPoints(s.PointsLog)
}

// RecomputeTotals восстанавливает TotalPoints из журнала.
func (s *Student) RecomputeTotals() bool {
	sum := SumPoints(s.PointsLog)
	if sum == s.TotalPoints {
		return false
	}
	s.TotalPoints = sum
	return true
}

// Reconcile восстанавливает сумму и заново вычисляет бейджи.
// Возвращает true, если что-то изменилось.
func (s *Student) Reconcile(eval AchievementEvaluator, now time.Time) bool {
	changed := s.RecomputeTotals()

	next := eval.Evaluate(s.TotalPoints, s.PointsLog, s.Achievements)
	if granted, revoked := DiffBadges(s.Achievements, next); len(granted) > 0 || len(revoked) > 0 {
		changed = true
	}
	s.Achievements = next

	if changed {
		s.UpdatedAt = now.UTC()
	}
	return changed
}

// Clone возвращает глубокую копию студента.
func (s *Student) Clone() *Student {
	c := *s
	c.PointsLog = append([]PointEntry(nil), s.PointsLog...)
	c.Achievements = append([]Badge(nil), s.Achievements...)
	if c.PointsLog == nil {
		c.PointsLog = []PointEntry{}
	}
	if c.Achievements == nil {
		c.Achievements = []Badge{}
	}
	return &c
}
