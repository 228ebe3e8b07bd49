package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

func strPtr(s string) *string { return &s }

func TestNewStudent_Defaults(t *testing.T) {
	s, err := NewStudent(NewStudentParams{Identity: "  user_42 "}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, shared.Identity("user_42"), s.Identity)
	assert.Equal(t, DefaultName, s.Name)
	assert.Equal(t, DefaultAvatarURL, s.AvatarURL)
	assert.Zero(t, s.TotalPoints)
	assert.Empty(t, s.PointsLog)
	assert.Empty(t, s.Achievements)
}

func TestNewStudent_EmptyIdentity(t *testing.T) {
	_, err := NewStudent(NewStudentParams{Identity: "   "}, fixedNow)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestSyncIdentity_IgnoresEmptyValues(t *testing.T) {
	s := newTestStudent(t)
	_, err := s.Append(PointEntryInput{Points: 100, Source: "LeetCode"}, &countingEvaluator{}, fixedNow)
	require.NoError(t, err)

	assert.False(t, s.SyncIdentity("", "", fixedNow))
	assert.Equal(t, "Alice Johnson", s.Name)

	assert.True(t, s.SyncIdentity("Alice J.", "https://img/a.png", fixedNow))
	assert.Equal(t, "Alice J.", s.Name)
	assert.Equal(t, "https://img/a.png", s.AvatarURL)
	assert.Equal(t, 100, s.TotalPoints)
	assert.Len(t, s.PointsLog, 1)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStudent(t)

	fields, err := s.UpdateProfile(ProfileUpdate{
		GitHubURL:   strPtr("https://github.com/alice"),
		LinkedInURL: strPtr(""),
	}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"githubUrl"}, fields)
	assert.Equal(t, "https://github.com/alice", s.GitHubURL)

	_, err = s.UpdateProfile(ProfileUpdate{Name: strPtr("  ")}, fixedNow)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Equal(t, "Alice Johnson", s.Name)
}

func TestReconcile_RepairsTotal(t *testing.T) {
	s := newTestStudent(t)
	s.PointsLog = []PointEntry{{Points: 300, Source: SourceGitHub}, {Points: 200, Source: SourceLeetCode}}
	s.TotalPoints = 10
	assert.False(t, s.CheckInvariant())

	changed := s.Reconcile(&countingEvaluator{}, fixedNow)

	assert.True(t, changed)
	assert.Equal(t, 500, s.TotalPoints)
	assert.True(t, s.CheckInvariant())
	assert.Equal(t, []string{"seen"}, BadgeIDs(s.Achievements))

	assert.False(t, s.Reconcile(&countingEvaluator{}, fixedNow))
}

func TestDiffBadges(t *testing.T) {
	granted, revoked := DiffBadges(
		[]Badge{{ID: "a"}, {ID: "b"}},
		[]Badge{{ID: "b"}, {ID: "c"}},
	)
	assert.Equal(t, []string{"c"}, granted)
	assert.Equal(t, []string{"a"}, revoked)
}

func TestClone_IsDeep(t *testing.T) {
	s := newTestStudent(t)
	_, err := s.Append(PointEntryInput{Points: 1, Source: "GitHub"}, &countingEvaluator{}, fixedNow)
	require.NoError(t, err)

	c := s.Clone()
	c.PointsLog[0].Points = 99
	c.Achievements[0].ID = "changed"

	assert.Equal(t, 1, s.PointsLog[0].Points)
	assert.Equal(t, "seen", s.Achievements[0].ID)
}
