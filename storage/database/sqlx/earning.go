package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/earning"
)

const earningColumns = "id, student_id, month, source, amount, memo, created_at"

type earningRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	Month     string    `db:"month"`
	Source    string    `db:"source"`
	Amount    int64     `db:"amount"`
	Memo      string    `db:"memo"`
	CreatedAt time.Time `db:"created_at"`
}

func (r earningRow) toEarning() earning.Earning {
	return earning.Earning{
		ID:        r.ID,
		StudentID: r.StudentID,
		Month:     r.Month,
		Source:    r.Source,
		Amount:    r.Amount,
		Memo:      r.Memo,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type earningRepository struct {
	db core.DB
}

var _ earning.Repository = (*earningRepository)(nil)

func NewEarningRepository(db core.DB) earning.Repository {
	return &earningRepository{db: db}
}

func (repo *earningRepository) CreateEarning(ctx context.Context, e earning.Earning) error {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO earnings (`+earningColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.StudentID, e.Month, e.Source, e.Amount, e.Memo, e.CreatedAt,
	)
	return errors.Wrap(err, "inserting earning")
}

func (repo *earningRepository) GetEarning(ctx context.Context, id string) (earning.Earning, error) {
	if !isUUID(id) {
		return earning.Earning{}, earning.ErrNotFound
	}
	var row earningRow
	if err := getOne(ctx, repo.db, &row, earning.ErrNotFound, "SELECT "+earningColumns+" FROM earnings WHERE id = ?", id); err != nil {
		return earning.Earning{}, err
	}
	return row.toEarning(), nil
}

func (repo *earningRepository) QueryEarnings(ctx context.Context, studentID string) ([]earning.Earning, error) {
	if !isUUID(studentID) {
		return []earning.Earning{}, nil
	}
	var rows []earningRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(
		"SELECT "+earningColumns+" FROM earnings WHERE student_id = ? ORDER BY month DESC, created_at DESC"), studentID)
	if err != nil {
		return nil, err
	}
	earnings := make([]earning.Earning, 0, len(rows))
	for _, row := range rows {
		earnings = append(earnings, row.toEarning())
	}
	return earnings, nil
}

func (repo *earningRepository) DeleteEarning(ctx context.Context, id string) error {
	if !isUUID(id) {
		return earning.ErrNotFound
	}
	return execAffecting(ctx, repo.db, earning.ErrNotFound, "DELETE FROM earnings WHERE id = ?", id)
}

func (repo *earningRepository) Summarize(ctx context.Context, month string) ([]earning.SummaryRow, error) {
	var w whereClause
	if month != "" {
		w.add("e.month = ?", month)
	}
	q := `
		SELECT s.id AS student_id, s.name, s.cohort, COUNT(e.id) AS count, SUM(e.amount) AS total
		FROM earnings e JOIN students s ON s.id = e.student_id` + w.String() + `
		GROUP BY s.id, s.name, s.cohort
		ORDER BY total DESC, s.name ASC`

	var rows []struct {
		StudentID string `db:"student_id"`
		Name      string `db:"name"`
		Cohort    int    `db:"cohort"`
		Count     int    `db:"count"`
		Total     int64  `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, err
	}
	summary := make([]earning.SummaryRow, 0, len(rows))
	for _, row := range rows {
		summary = append(summary, earning.SummaryRow(row))
	}
	return summary, nil
}
