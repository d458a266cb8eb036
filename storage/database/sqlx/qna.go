package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/qna"
)

const questionColumns = "id, student_id, title, body, answer, answered_by, created_at, answered_at"

type questionRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	Title      string    `db:"title"`
	Body       string    `db:"body"`
	Answer     string    `db:"answer"`
	AnsweredBy string    `db:"answered_by"`
	CreatedAt  time.Time `db:"created_at"`
	AnsweredAt null.Time `db:"answered_at"`
}

func (r questionRow) toQuestion() qna.Question {
	return qna.Question{
		ID:         r.ID,
		StudentID:  r.StudentID,
		Title:      r.Title,
		Body:       r.Body,
		Answer:     r.Answer,
		AnsweredBy: r.AnsweredBy,
		CreatedAt:  r.CreatedAt.UTC(),
		AnsweredAt: utcPtr(r.AnsweredAt),
	}
}

type qnaRepository struct {
	db core.DB
}

var _ qna.Repository = (*qnaRepository)(nil)

func NewQnARepository(db core.DB) qna.Repository {
	return &qnaRepository{db: db}
}

func (repo *qnaRepository) CreateQuestion(ctx context.Context, q qna.Question) error {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		q.ID, q.StudentID, q.Title, q.Body, q.Answer, q.AnsweredBy, q.CreatedAt, null.TimeFromPtr(q.AnsweredAt),
	)
	return errors.Wrap(err, "inserting question")
}

func (repo *qnaRepository) GetQuestion(ctx context.Context, id string) (qna.Question, error) {
	if !isUUID(id) {
		return qna.Question{}, qna.ErrNotFound
	}
	var row questionRow
	if err := getOne(ctx, repo.db, &row, qna.ErrNotFound, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id); err != nil {
		return qna.Question{}, err
	}
	return row.toQuestion(), nil
}

func questionsWhere(filter qna.QueryFilter) (whereClause, bool) {
	var w whereClause
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return w, false
		}
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Answered != nil {
		if *filter.Answered {
			w.add("answered_at IS NOT NULL")
		} else {
			w.add("answered_at IS NULL")
		}
	}
	return w, true
}

func (repo *qnaRepository) QueryQuestions(ctx context.Context, filter qna.QueryFilter) ([]qna.Question, error) {
	w, ok := questionsWhere(filter)
	if !ok {
		return []qna.Question{}, nil
	}
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM questions" + w.String() + " ORDER BY created_at DESC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	questions := make([]qna.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toQuestion())
	}
	return questions, nil
}

func (repo *qnaRepository) CountQuestions(ctx context.Context, filter qna.QueryFilter) (int, error) {
	w, ok := questionsWhere(filter)
	if !ok {
		return 0, nil
	}
	var n int
	err := sqlx.GetContext(ctx, repo.db, &n, repo.db.Rebind("SELECT COUNT(*) FROM questions"+w.String()), w.args...)
	return n, errors.Wrap(err, "counting questions")
}

func (repo *qnaRepository) UpdateQuestion(ctx context.Context, q qna.Question) error {
	return execAffecting(ctx, repo.db, qna.ErrNotFound, `
		UPDATE questions SET title = ?, body = ?, answer = ?, answered_by = ?, answered_at = ? WHERE id = ?`,
		q.Title, q.Body, q.Answer, q.AnsweredBy, null.TimeFromPtr(q.AnsweredAt), q.ID,
	)
}

func (repo *qnaRepository) DeleteQuestion(ctx context.Context, id string) error {
	if !isUUID(id) {
		return qna.ErrNotFound
	}
	return execAffecting(ctx, repo.db, qna.ErrNotFound, "DELETE FROM questions WHERE id = ?", id)
}
