package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `identity, name, avatar_url, github_url, linkedin_url,
	total_points, points_log, achievements, created_at, updated_at`

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	row, err := encodeStudent(s)
	if err != nil {
		return err
	}

	_, err = r.conn.Pool().Exec(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.Identity, row.Name, row.AvatarURL, row.GitHubURL, row.LinkedInURL,
		row.TotalPoints, row.PointsLog, row.Achievements, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrStudentAlreadyExists
		}
		return unavailable("student", "Create", err)
	}
	return nil
}

// GetByIdentity returns a student by identity.
func (r *StudentRepository) GetByIdentity(ctx context.Context, id shared.Identity) (*student.Student, error) {
	s, err := scanStudent(r.conn.Pool().QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE identity = $1`, string(id)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, unavailable("student", "GetByIdentity", err)
	}
	return s, nil
}

// ListAll returns every student ordered by creation time.
func (r *StudentRepository) ListAll(ctx context.Context) ([]*student.Student, error) {
	rows, err := r.conn.Pool().Query(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY created_at, identity`)
	if err != nil {
		return nil, unavailable("student", "ListAll", err)
	}
	defer rows.Close()

	var out []*student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, unavailable("student", "ListAll", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("student", "ListAll", err)
	}
	return out, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE, applies fn and writes the
// result back in the same transaction. Concurrent appends for one identity
// queue on the row lock.
func (r *StudentRepository) Mutate(ctx context.Context, id shared.Identity, fn student.MutateFunc) (*student.Student, error) {
	var result *student.Student

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		s, err := scanStudent(tx.QueryRow(ctx,
			`SELECT `+studentColumns+` FROM students WHERE identity = $1 FOR UPDATE`, string(id)))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrStudentNotFound
			}
			return err
		}

		if err := fn(s); err != nil {
			return err
		}

		row, err := encodeStudent(s)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE students SET
				name = $2,
				avatar_url = $3,
				github_url = $4,
				linkedin_url = $5,
				total_points = $6,
				points_log = $7,
				achievements = $8,
				updated_at = $9
			WHERE identity = $1`,
			row.Identity, row.Name, row.AvatarURL, row.GitHubURL, row.LinkedInURL,
			row.TotalPoints, row.PointsLog, row.Achievements, row.UpdatedAt,
		)
		if err != nil {
			return err
		}

		result = s
		return nil
	})
	if err != nil {
		return nil, unavailable("student", "Mutate", err)
	}
	return result, nil
}

var _ student.Repository = (*StudentRepository)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

// studentRow is the column form of a student. The ledger and badges are
// stored as JSONB arrays.
type studentRow struct {
	Identity     string
	Name         string
	AvatarURL    string
	GitHubURL    string
	LinkedInURL  string
	TotalPoints  int64
	PointsLog    []byte
	Achievements []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func encodeStudent(s *student.Student) (studentRow, error) {
	log := s.PointsLog
	if log == nil {
		log = []student.PointEntry{}
	}
	badges := s.Achievements
	if badges == nil {
		badges = []student.Badge{}
	}

	logJSON, err := json.Marshal(log)
	if err != nil {
		return studentRow{}, fmt.Errorf("failed to marshal points log: %w", err)
	}
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return studentRow{}, fmt.Errorf("failed to marshal achievements: %w", err)
	}

	return studentRow{
		Identity:     string(s.Identity),
		Name:         s.Name,
		AvatarURL:    s.AvatarURL,
		GitHubURL:    s.GitHubURL,
		LinkedInURL:  s.LinkedInURL,
		TotalPoints:  int64(s.TotalPoints),
		PointsLog:    logJSON,
		Achievements: badgesJSON,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

func decodeStudent(row studentRow) (*student.Student, error) {
	s := &student.Student{
		Identity:     shared.Identity(row.Identity),
		Name:         row.Name,
		AvatarURL:    row.AvatarURL,
		GitHubURL:    row.GitHubURL,
		LinkedInURL:  row.LinkedInURL,
		TotalPoints:  int(row.TotalPoints),
		PointsLog:    []student.PointEntry{},
		Achievements: []student.Badge{},
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}

	if len(row.PointsLog) > 0 {
		if err := json.Unmarshal(row.PointsLog, &s.PointsLog); err != nil {
			return nil, fmt.Errorf("failed to unmarshal points log for %s: %w", row.Identity, err)
		}
	}
	if len(row.Achievements) > 0 {
		if err := json.Unmarshal(row.Achievements, &s.Achievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievements for %s: %w", row.Identity, err)
		}
	}
	return s, nil
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var r studentRow
	err := row.Scan(
		&r.Identity, &r.Name, &r.AvatarURL, &r.GitHubURL, &r.LinkedInURL,
		&r.TotalPoints, &r.PointsLog, &r.Achievements, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return decodeStudent(r)
}
