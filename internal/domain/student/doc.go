// Package student содержит доменную модель студента 1board и его журнал очков
// (PointLedger).
//
// Пакет определяет:
//
//   - Student: одна запись на identity, с журналом PointEntry, суммой очков и
//     кешированным набором бейджей.
//   - Source: закрытый перечень источников очков (LeetCode, GoogleForm,
//     ManualAllocation, GitHub).
//   - Repository: контракт хранилища с атомарным Mutate для записи в журнал.
//
// # Инварианты
//
// После каждой мутации журнала выполняется:
//
//	student.TotalPoints == sum(e.Points for e in student.PointsLog)
//
// Журнал растёт только добавлением в конец. TotalPoints и Achievements
// пересчитываются, но никогда не редактируются напрямую.
//
// # Пример
//
//	entry, err := s.Append(student.PointEntryInput{
//	    Points:      600,
//	    Source:      "LeetCode",
//	    Description: "Weekly contest",
//	}, engine, time.Now())
//	if err != nil {
//	    return err // shared.ErrInvalidInput: журнал не изменён
//	}
//
// Бейджи вычисляются через AchievementEvaluator, реализованный в пакете
// achievement, чтобы доменная модель не зависела от каталога бейджей.
package student
