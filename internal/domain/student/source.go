package student

import (
	"strconv"
	"strings"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// Source определяет, откуда пришли очки.
type Source string

const (
	// SourceLeetCode - решённые задачи LeetCode.
	SourceLeetCode Source = "LeetCode"
	// SourceGoogleForm - отправленные формы.
	SourceGoogleForm Source = "GoogleForm"
	// SourceManualAllocation - ручное начисление или списание администратором.
	SourceManualAllocation Source = "ManualAllocation"
	// SourceGitHub - вклад в репозитории GitHub.
	SourceGitHub Source = "GitHub"
)

// AllSources возвращает все допустимые источники.
func AllSources() []Source {
	return []Source{SourceLeetCode, SourceGoogleForm, SourceManualAllocation, SourceGitHub}
}

// legacyLabels - отображаемые названия, которые встречаются в старых записях.
var legacyLabels = map[string]Source{
	"google form":       SourceGoogleForm,
	"manual allocation": SourceManualAllocation,
}

// IsValid проверяет, что источник входит в закрытый перечень.
func (s Source) IsValid() bool {
	switch s {
	case SourceLeetCode, SourceGoogleForm, SourceManualAllocation, SourceGitHub:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление источника.
func (s Source) String() string {
	return string(s)
}

// Label возвращает человекочитаемое название.
func (s Source) Label() string {
	switch s {
	case SourceGoogleForm:
		return "Google Form"
	case SourceManualAllocation:
		return "Manual Allocation"
	default:
		return string(s)
	}
}

// ParseSource разбирает источник. Принимает канонические значения в любом
// регистре и старые метки вида "Google Form".
func ParseSource(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range AllSources() {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	if s, ok := legacyLabels[strings.ToLower(trimmed)]; ok {
		return s, nil
	}
	return "", shared.WrapError("student", "ParseSource", shared.ErrInvalidInput,
		"unknown point source "+strconv.Quote(trimmed), shared.ErrUnknownSource)
}

