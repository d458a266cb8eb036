package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/storage/database"
)

type postRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	URL       string    `db:"url"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

func (r postRow) toPost() growth.Post {
	return growth.Post{ID: r.ID, StudentID: r.StudentID, URL: r.URL, Title: r.Title, CreatedAt: r.CreatedAt.UTC()}
}

type growthRepository struct {
	db core.DB
}

var _ growth.Repository = (*growthRepository)(nil)

func NewGrowthRepository(db core.DB) growth.Repository {
	return &growthRepository{db: db}
}

func (repo *growthRepository) CreatePost(ctx context.Context, p growth.Post, award points.Entry) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		_, err := exec.ExecContext(ctx, exec.Rebind(`
			INSERT INTO posts (id, student_id, url, title, created_at) VALUES (?, ?, ?, ?, ?)`),
			p.ID, p.StudentID, p.URL, p.Title, p.CreatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return growth.ErrPostExists
			}
			return errors.Wrap(err, "inserting post")
		}
		err = execAffecting(ctx, exec, points.ErrStudentNotFound,
			"UPDATE students SET post_count = post_count + 1 WHERE id = ?", p.StudentID)
		if err != nil {
			return errors.Wrap(err, "incrementing post count")
		}
		return addEntries(ctx, exec, []points.Entry{award})
	})
}

func (repo *growthRepository) GetPost(ctx context.Context, id string) (growth.Post, error) {
	if !isUUID(id) {
		return growth.Post{}, growth.ErrNotFound
	}
	var row postRow
	err := getOne(ctx, repo.db, &row, growth.ErrNotFound,
		"SELECT id, student_id, url, title, created_at FROM posts WHERE id = ?", id)
	if err != nil {
		return growth.Post{}, err
	}
	return row.toPost(), nil
}

func (repo *growthRepository) QueryPosts(ctx context.Context, filter growth.QueryFilter) ([]growth.Post, error) {
	var w whereClause
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return []growth.Post{}, nil
		}
		w.add("p.student_id = ?", filter.StudentID)
	}
	if filter.Cohort > 0 {
		w.add("s.cohort = ?", filter.Cohort)
	}

	var rows []postRow
	q := `SELECT p.id, p.student_id, p.url, p.title, p.created_at
		FROM posts p JOIN students s ON s.id = p.student_id` + w.String() + " ORDER BY p.created_at DESC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting posts")
	}
	posts := make([]growth.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toPost())
	}
	return posts, nil
}

func (repo *growthRepository) DeletePost(ctx context.Context, p growth.Post) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		if err := execAffecting(ctx, exec, growth.ErrNotFound, "DELETE FROM posts WHERE id = ?", p.ID); err != nil {
			return err
		}
		_, err := exec.ExecContext(ctx, exec.Rebind(
			"UPDATE students SET post_count = GREATEST(post_count - 1, 0) WHERE id = ?"), p.StudentID)
		return errors.Wrap(err, "decrementing post count")
	})
}

func (repo *growthRepository) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, repo.db, &n, "SELECT COUNT(*) FROM posts")
	return n, errors.Wrap(err, "counting posts")
}
