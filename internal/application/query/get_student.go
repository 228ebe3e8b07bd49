package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT QUERY
// Profile view: the student record, its ledger newest first and its rank.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentQuery identifies the student.
type GetStudentQuery struct {
	Identity string
}

// StudentProfileDTO is the read model returned to the UI.
type StudentProfileDTO struct {
	Identity     string                       `json:"identity"`
	Name         string                       `json:"name"`
	AvatarURL    string                       `json:"avatarUrl"`
	GitHubURL    string                       `json:"githubUrl,omitempty"`
	LinkedInURL  string                       `json:"linkedinUrl,omitempty"`
	TotalPoints  int                          `json:"totalPoints"`
	Achievements []student.Badge              `json:"achievements"`
	History      []student.ChronologicalEntry `json:"history"`

	// Rank is 0 when the student is not on the public leaderboard.
	Rank   int  `json:"rank"`
	Ranked bool `json:"ranked"`
}

// GetStudentHandler handles GetStudentQuery.
type GetStudentHandler struct {
	studentRepo student.Repository
	standings   *StandingsReader
}

// NewGetStudentHandler creates a new GetStudentHandler.
func NewGetStudentHandler(studentRepo student.Repository, standings *StandingsReader) *GetStudentHandler {
	return &GetStudentHandler{studentRepo: studentRepo, standings: standings}
}

// Handle executes the query.
func (h *GetStudentHandler) Handle(ctx context.Context, q GetStudentQuery) (*StudentProfileDTO, error) {
	id, err := shared.NewIdentity(q.Identity)
	if err != nil {
		return nil, fmt.Errorf("get_student: %w", err)
	}

	s, err := h.studentRepo.GetByIdentity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get_student: %w", err)
	}

	snap, _, err := h.standings.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_student: %w", err)
	}

	dto := &StudentProfileDTO{
		Identity:     string(s.Identity),
		Name:         s.Name,
		AvatarURL:    s.AvatarURL,
		GitHubURL:    s.GitHubURL,
		LinkedInURL:  s.LinkedInURL,
		TotalPoints:  s.TotalPoints,
		Achievements: s.Achievements,
		History:      s.ListChronological(),
	}

	rank, err := snap.RankOf(id)
	switch {
	case err == nil:
		dto.Rank, dto.Ranked = rank.Int(), true
	case !errors.Is(err, shared.ErrNotFound):
		return nil, fmt.Errorf("get_student: %w", err)
	}
	return dto, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT RANK QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentRankQuery identifies the student.
type GetStudentRankQuery struct {
	Identity string
}

// StudentRankDTO is the rank of one student.
type StudentRankDTO struct {
	Identity    string `json:"identity"`
	Rank        int    `json:"rank"`
	TotalPoints int    `json:"totalPoints"`
	OutOf       int    `json:"outOf"`
	Medal       string `json:"medal,omitempty"`
}

// GetStudentRankHandler handles GetStudentRankQuery.
type GetStudentRankHandler struct {
	standings *StandingsReader
}

// NewGetStudentRankHandler creates a new GetStudentRankHandler.
func NewGetStudentRankHandler(standings *StandingsReader) *GetStudentRankHandler {
	return &GetStudentRankHandler{standings: standings}
}

// Handle returns the 1-based rank or NotFound for unknown and excluded identities.
func (h *GetStudentRankHandler) Handle(ctx context.Context, q GetStudentRankQuery) (*StudentRankDTO, error) {
	id, err := shared.NewIdentity(q.Identity)
	if err != nil {
		return nil, fmt.Errorf("get_student_rank: %w", err)
	}

	snap, _, err := h.standings.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_student_rank: %w", err)
	}

	rank, err := snap.RankOf(id)
	if err != nil {
		return nil, fmt.Errorf("get_student_rank: %w", err)
	}

	entry := snap.Entries[rank.Int()-1]
	return &StudentRankDTO{
		Identity:    string(id),
		Rank:        rank.Int(),
		TotalPoints: entry.TotalPoints,
		OutOf:       snap.Count(),
		Medal:       rank.Medal(),
	}, nil
}
