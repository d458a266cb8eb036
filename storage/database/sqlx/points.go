package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

type pointEntryRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Amount    int       `db:"amount"`
	Source    string    `db:"source"`
	SourceID  string    `db:"source_id"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func (r pointEntryRow) toEntry() points.Entry {
	return points.Entry{
		ID:        r.ID,
		StudentID: r.StudentID,
		Amount:    r.Amount,
		Source:    r.Source,
		SourceID:  r.SourceID,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type pointsRepository struct {
	db core.DB
}

var _ points.Repository = (*pointsRepository)(nil)

func NewPointsRepository(db core.DB) points.Repository {
	return &pointsRepository{db: db}
}

func (repo *pointsRepository) AddEntries(ctx context.Context, entries ...points.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if !isUUID(e.StudentID) {
			return points.ErrStudentNotFound
		}
	}
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		return addEntries(ctx, exec, entries)
	})
}

func (repo *pointsRepository) QueryEntries(ctx context.Context, studentID string) ([]points.Entry, error) {
	if !isUUID(studentID) {
		return []points.Entry{}, nil
	}
	var rows []pointEntryRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(`
		SELECT id, student_id, amount, source, source_id, reason, created_at
		FROM point_entries WHERE student_id = ? ORDER BY created_at DESC`), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting point entries")
	}
	entries := make([]points.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

func (repo *pointsRepository) Standings(ctx context.Context) ([]points.Standing, error) {
	var rows []struct {
		ID     string `db:"id"`
		Name   string `db:"name"`
		Cohort int    `db:"cohort"`
		Points int    `db:"points"`
	}
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(`
		SELECT id, name, cohort, points FROM students
		WHERE is_active AND ? = ANY (roles) AND NOT EXISTS (SELECT 1 FROM unnest(roles) AS role WHERE role LIKE 'admin:%')
		ORDER BY points DESC, name ASC`), student.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "selecting standings")
	}
	standings := make([]points.Standing, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, points.Standing{StudentID: row.ID, Name: row.Name, Cohort: row.Cohort, Points: row.Points})
	}
	return standings, nil
}
