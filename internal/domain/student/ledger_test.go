package student

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// countingEvaluator records calls and grants one badge per log entry source.
type countingEvaluator struct {
	calls int
}

func (c *countingEvaluator) Evaluate(total int, log []PointEntry, _ []Badge) []Badge {
	c.calls++
	if len(log) == 0 {
		return []Badge{}
	}
	return []Badge{{ID: "seen"}}
}

var fixedNow = time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)

func newTestStudent(t *testing.T) *Student {
	t.Helper()
	s, err := NewStudent(NewStudentParams{Identity: "user_1", Name: "Alice Johnson"}, fixedNow)
	require.NoError(t, err)
	return s
}

func TestAppend_TotalTracksSumOfLog(t *testing.T) {
	s := newTestStudent(t)
	eval := &countingEvaluator{}

	points := []float64{100, 250, -40, 0, 1200, -2000}
	expected := 0
	for _, p := range points {
		_, err := s.Append(PointEntryInput{Points: p, Source: "ManualAllocation"}, eval, fixedNow)
		require.NoError(t, err)
		expected += int(p)
		assert.Equal(t, expected, s.TotalPoints)
		assert.True(t, s.CheckInvariant())
	}
	assert.Len(t, s.PointsLog, len(points))
	assert.Equal(t, len(points), eval.calls)
}

func TestAppend_AssignsIDAndDefaultDate(t *testing.T) {
	s := newTestStudent(t)

	entry, err := s.Append(PointEntryInput{Points: 10, Source: "GitHub", Description: "PR merged"}, &countingEvaluator{}, fixedNow)
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2024-07-20T12:00:00.000Z", entry.Date)
	assert.Equal(t, SourceGitHub, entry.Source)
	assert.Equal(t, "PR merged", entry.Description)
	assert.Equal(t, entry, s.PointsLog[0])
	assert.Equal(t, []Badge{{ID: "seen"}}, s.Achievements)
}

func TestAppend_KeepsSuppliedIDAndDate(t *testing.T) {
	s := newTestStudent(t)

	entry, err := s.Append(PointEntryInput{ID: "legacy-1", Date: "2024-07-01", Points: 5, Source: "LeetCode"}, &countingEvaluator{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", entry.ID)
	assert.Equal(t, "2024-07-01", entry.Date)
}

func TestAppend_UniqueIDs(t *testing.T) {
	s := newTestStudent(t)
	eval := &countingEvaluator{}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		e, err := s.Append(PointEntryInput{Points: 1, Source: "LeetCode"}, eval, fixedNow)
		require.NoError(t, err)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestAppend_RejectsInvalidInputWithoutMutation(t *testing.T) {
	tests := []struct {
		name  string
		input PointEntryInput
		kind  error
	}{
		{"unknown source", PointEntryInput{Points: 10, Source: "Twitter"}, shared.ErrUnknownSource},
		{"empty source", PointEntryInput{Points: 10, Source: ""}, shared.ErrUnknownSource},
		{"NaN", PointEntryInput{Points: math.NaN(), Source: "LeetCode"}, shared.ErrNonFinitePoints},
		{"+Inf", PointEntryInput{Points: math.Inf(1), Source: "LeetCode"}, shared.ErrNonFinitePoints},
		{"-Inf", PointEntryInput{Points: math.Inf(-1), Source: "LeetCode"}, shared.ErrNonFinitePoints},
		{"fractional", PointEntryInput{Points: 1.5, Source: "LeetCode"}, shared.ErrNonFinitePoints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStudent(t)
			_, err := s.Append(PointEntryInput{Points: 300, Source: "GitHub"}, &countingEvaluator{}, fixedNow)
			require.NoError(t, err)
			before := s.Clone()

			eval := &countingEvaluator{}
			_, err = s.Append(tt.input, eval, fixedNow)

			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, before, s)
			assert.Zero(t, eval.calls)
		})
	}
}

func TestAppend_RejectsDuplicateSuppliedID(t *testing.T) {
	s := newTestStudent(t)
	_, err := s.Append(PointEntryInput{ID: "lc-123", Points: 50, Source: "LeetCode"}, &countingEvaluator{}, fixedNow)
	require.NoError(t, err)
	before := s.Clone()

	eval := &countingEvaluator{}
	_, err = s.Append(PointEntryInput{ID: "lc-123", Points: 50, Source: "LeetCode"}, eval, fixedNow)

	assert.ErrorIs(t, err, shared.ErrDuplicateEntryID)
	assert.True(t, shared.IsAlreadyExists(err))
	assert.Equal(t, before, s)
	assert.Equal(t, 50, s.TotalPoints)
	assert.Zero(t, eval.calls)
}

func TestAppend_RequiresEvaluator(t *testing.T) {
	s := newTestStudent(t)
	_, err := s.Append(PointEntryInput{Points: 1, Source: "LeetCode"}, nil, fixedNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, s.PointsLog)
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		raw  string
		want Source
	}{
		{"LeetCode", SourceLeetCode},
		{"leetcode", SourceLeetCode},
		{"GoogleForm", SourceGoogleForm},
		{"Google Form", SourceGoogleForm},
		{"ManualAllocation", SourceManualAllocation},
		{"Manual Allocation", SourceManualAllocation},
		{" GitHub ", SourceGitHub},
	}
	for _, tt := range tests {
		got, err := ParseSource(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSource("Kaggle")
	assert.True(t, shared.IsValidation(err))
}

func TestListChronological_NewestFirstUnparsableLast(t *testing.T) {
	s := newTestStudent(t)
	s.PointsLog = []PointEntry{
		{ID: "a", Date: "2024-07-01T09:00:00Z", Points: 1, Source: SourceLeetCode},
		{ID: "bad1", Date: "not a date", Points: 1, Source: SourceLeetCode},
		{ID: "b", Date: "2024-07-15T09:00:00.000Z", Points: 1, Source: SourceGitHub},
		{ID: "c", Date: "2024-07-10", Points: 1, Source: SourceGoogleForm},
		{ID: "bad2", Date: "", Points: 1, Source: SourceManualAllocation},
	}
	s.TotalPoints = 5

	got := s.ListChronological()

	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"b", "c", "a", "bad1", "bad2"}, ids)

	assert.False(t, got[0].Unparsable)
	assert.Equal(t, time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC), got[0].At)
	assert.Equal(t, "GitHub", got[0].SourceLabel)
	assert.Equal(t, "Google Form", got[1].SourceLabel)
	assert.Equal(t, "Manual Allocation", got[4].SourceLabel)
	assert.True(t, got[3].Unparsable)
	assert.True(t, got[4].Unparsable)
	assert.True(t, got[3].At.IsZero())

	// The stored log keeps insertion order.
	assert.Equal(t, "a", s.PointsLog[0].ID)
}

func TestListChronological_SameDateNewestAppendFirst(t *testing.T) {
	s := newTestStudent(t)
	eval := &countingEvaluator{}
	for _, id := range []string{"first", "second", "third"} {
		_, err := s.Append(PointEntryInput{ID: id, Points: 1, Source: "LeetCode"}, eval, fixedNow)
		require.NoError(t, err)
	}
	s.PointsLog = append(s.PointsLog,
		PointEntry{ID: "bad1", Date: "??", Points: 1, Source: SourceLeetCode},
		PointEntry{ID: "bad2", Date: "??", Points: 1, Source: SourceLeetCode},
	)

	got := s.ListChronological()

	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"third", "second", "first", "bad1", "bad2"}, ids)
}

func TestListChronological_Empty(t *testing.T) {
	s := newTestStudent(t)
	assert.Empty(t, s.ListChronological())
}

func TestParseDate(t *testing.T) {
	_, ok := ParseDate("2024-07-21")
	assert.True(t, ok)
	_, ok = ParseDate("2024-07-21T10:00:00+05:00")
	assert.True(t, ok)
	_, ok = ParseDate("21/07/2024")
	assert.False(t, ok)
}
