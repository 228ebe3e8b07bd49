package leetcode

import (
	"strings"

	"github.com/nexus-academicus/1board/internal/application/query"
)

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data struct {
		Daily *dailyChallengeDTO `json:"activeDailyCodingChallengeQuestion"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type dailyChallengeDTO struct {
	Date     string      `json:"date"`
	Link     string      `json:"link"`
	Question questionDTO `json:"question"`
}

type questionDTO struct {
	AcRate             float64 `json:"acRate"`
	Difficulty         string  `json:"difficulty"`
	FrontendQuestionID string  `json:"frontendQuestionId"`
	PaidOnly           bool    `json:"paidOnly"`
	Title              string  `json:"title"`
	TitleSlug          string  `json:"titleSlug"`
	TopicTags          []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"topicTags"`
}

// toProblem maps the GraphQL payload. LeetCode returns a path-only link.
func (d *dailyChallengeDTO) toProblem() *query.DailyProblem {
	link := d.Link
	if strings.HasPrefix(link, "/") {
		link = "https://leetcode.com" + link
	}

	tags := make([]string, 0, len(d.Question.TopicTags))
	for _, t := range d.Question.TopicTags {
		tags = append(tags, t.Name)
	}

	return &query.DailyProblem{
		Date:       d.Date,
		Title:      d.Question.Title,
		TitleSlug:  d.Question.TitleSlug,
		Difficulty: d.Question.Difficulty,
		Link:       link,
		Tags:       tags,
		AcRate:     d.Question.AcRate,
	}
}
