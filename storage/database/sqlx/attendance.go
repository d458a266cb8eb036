package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/storage/database"
)

const attendanceColumns = "id, student_id, day, checked_in_at, streak, points"

type attendanceRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	Day         time.Time `db:"day"`
	CheckedInAt time.Time `db:"checked_in_at"`
	Streak      int       `db:"streak"`
	Points      int       `db:"points"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Day:         r.Day.Format(core.DayLayout),
		CheckedInAt: r.CheckedInAt.UTC(),
		Streak:      r.Streak,
		Points:      r.Points,
	}
}

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db core.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, studentID, day string) (attendance.Record, error) {
	if !isUUID(studentID) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var row attendanceRow
	err := getOne(ctx, repo.db, &row, attendance.ErrNotFound,
		"SELECT "+attendanceColumns+" FROM attendance WHERE student_id = ? AND day = ?", studentID, day)
	if err != nil {
		return attendance.Record{}, err
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) LatestRecord(ctx context.Context, studentID string) (attendance.Record, error) {
	if !isUUID(studentID) {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var row attendanceRow
	err := getOne(ctx, repo.db, &row, attendance.ErrNotFound,
		"SELECT "+attendanceColumns+" FROM attendance WHERE student_id = ? ORDER BY day DESC LIMIT 1", studentID)
	if err != nil {
		return attendance.Record{}, err
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, studentID string) (int, error) {
	if !isUUID(studentID) {
		return 0, nil
	}
	var n int
	err := sqlx.GetContext(ctx, repo.db, &n, repo.db.Rebind("SELECT COUNT(*) FROM attendance WHERE student_id = ?"), studentID)
	return n, errors.Wrap(err, "counting attendance")
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, studentID, from, to string) ([]attendance.Record, error) {
	var w whereClause
	w.add("day BETWEEN ? AND ?", from, to)
	if studentID != "" {
		if !isUUID(studentID) {
			return []attendance.Record{}, nil
		}
		w.add("student_id = ?", studentID)
	}

	var rows []attendanceRow
	q := "SELECT " + attendanceColumns + " FROM attendance" + w.String() + " ORDER BY day ASC, checked_in_at ASC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, awards []points.Entry) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		_, err := exec.ExecContext(ctx, exec.Rebind(`
			INSERT INTO attendance (`+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			rec.ID, rec.StudentID, rec.Day, rec.CheckedInAt, rec.Streak, rec.Points,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return attendance.ErrAlreadyCheckedIn
			}
			if isForeignKeyViolation(err) {
				return student.ErrNotFound
			}
			return errors.Wrap(err, "inserting attendance")
		}
		return addEntries(ctx, exec, awards)
	})
}

func (repo *attendanceRepository) DailyReport(ctx context.Context, day string) ([]attendance.DailyEntry, error) {
	var rows []struct {
		StudentID   string    `db:"student_id"`
		Name        string    `db:"name"`
		Cohort      int       `db:"cohort"`
		CheckedInAt null.Time `db:"checked_in_at"`
		Streak      null.Int  `db:"streak"`
	}
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(`
		SELECT s.id AS student_id, s.name, s.cohort, a.checked_in_at, a.streak
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id AND a.day = ?
		WHERE s.is_active AND ? = ANY (s.roles)
		ORDER BY s.cohort ASC, s.name ASC`), day, student.RoleStudent)
	if err != nil {
		return nil, errors.Wrap(err, "selecting daily report")
	}

	entries := make([]attendance.DailyEntry, 0, len(rows))
	for _, row := range rows {
		entry := attendance.DailyEntry{StudentID: row.StudentID, Name: row.Name, Cohort: row.Cohort}
		if row.CheckedInAt.Valid {
			t := row.CheckedInAt.Time.UTC()
			entry.CheckedIn = true
			entry.CheckedInAt = &t
			entry.Streak = row.Streak.Int
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
