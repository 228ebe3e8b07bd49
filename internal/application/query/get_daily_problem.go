package query

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DAILY PROBLEM QUERY
// LeetCode's question of the day, shown on the dashboard.
// ══════════════════════════════════════════════════════════════════════════════

// DailyProblem is the question of the day.
type DailyProblem struct {
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	TitleSlug  string   `json:"titleSlug"`
	Difficulty string   `json:"difficulty"`
	Link       string   `json:"link"`
	Tags       []string `json:"tags"`
	AcRate     float64  `json:"acRate"`
}

// DailyProblemProvider fetches the daily problem from an external source.
type DailyProblemProvider interface {
	DailyProblem(ctx context.Context) (*DailyProblem, error)
}

// GetDailyProblemHandler handles the query.
type GetDailyProblemHandler struct {
	provider DailyProblemProvider
}

// NewGetDailyProblemHandler creates a new GetDailyProblemHandler.
func NewGetDailyProblemHandler(provider DailyProblemProvider) *GetDailyProblemHandler {
	return &GetDailyProblemHandler{provider: provider}
}

// Handle executes the query.
func (h *GetDailyProblemHandler) Handle(ctx context.Context) (*DailyProblem, error) {
	p, err := h.provider.DailyProblem(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_daily_problem: %w", err)
	}
	return p, nil
}
