package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
)

// whereClause collects AND-ed conditions written with "?" bindvars.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy builds an ORDER BY clause out of the orderings on allowed columns ({field: column}).
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := allowed[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// selectIn runs a query with "?" bindvars, expanding slice args (IN clauses).
func selectIn(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func getOne(ctx context.Context, exec core.DBExecutor, dest interface{}, notFound error, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, exec, dest, exec.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return notFound
		}
		return err
	}
	return nil
}

// execAffecting runs a statement and returns notFound if it affected no row.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == "23503"
}

const insertPointEntry = `
INSERT INTO point_entries (id, student_id, amount, source, source_id, reason, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (student_id, source, source_id) WHERE source <> 'manual' DO NOTHING`

// addEntries saves point entries and adds them to the students' points.
// Automatic awards already in the ledger are skipped (and not added twice).
func addEntries(ctx context.Context, exec core.DBExecutor, entries []points.Entry) error {
	for _, e := range entries {
		res, err := exec.ExecContext(
			ctx, exec.Rebind(insertPointEntry),
			e.ID, e.StudentID, e.Amount, e.Source, e.SourceID, e.Reason, e.CreatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return points.ErrStudentNotFound
			}
			return errors.Wrap(err, "inserting point entry")
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			continue
		}

		err = execAffecting(
			ctx, exec, points.ErrStudentNotFound,
			"UPDATE students SET points = points + ? WHERE id = ?", e.Amount, e.StudentID,
		)
		if err != nil {
			return errors.Wrap(err, "updating student points")
		}
	}
	return nil
}

func newID() string { return uuid.NewString() }

// isUUID reports whether id can be compared with a UUID column.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}
