package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/vod"
)

const (
	lectureColumns    = "id, week, title, description, video_url, duration_sec, published_at, created_at, updated_at"
	progressColumns   = "student_id, lecture_id, watched_sec, completed, completed_at, updated_at"
	assignmentColumns = "id, lecture_id, title, description, due_at, created_at"
	submissionColumns = "id, assignment_id, student_id, url, memo, feedback, submitted_at, updated_at, reviewed_at"
)

type lectureRow struct {
	ID          string    `db:"id"`
	Week        int       `db:"week"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	VideoURL    string    `db:"video_url"`
	DurationSec int       `db:"duration_sec"`
	PublishedAt null.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r lectureRow) toLecture() vod.Lecture {
	return vod.Lecture{
		ID:          r.ID,
		Week:        r.Week,
		Title:       r.Title,
		Description: r.Description,
		VideoURL:    r.VideoURL,
		DurationSec: r.DurationSec,
		PublishedAt: utcPtr(r.PublishedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type progressRow struct {
	StudentID   string    `db:"student_id"`
	LectureID   string    `db:"lecture_id"`
	WatchedSec  int       `db:"watched_sec"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r progressRow) toProgress() vod.Progress {
	return vod.Progress{
		StudentID:   r.StudentID,
		LectureID:   r.LectureID,
		WatchedSec:  r.WatchedSec,
		Completed:   r.Completed,
		CompletedAt: utcPtr(r.CompletedAt),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type assignmentRow struct {
	ID          string    `db:"id"`
	LectureID   string    `db:"lecture_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueAt       null.Time `db:"due_at"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r assignmentRow) toAssignment() vod.Assignment {
	return vod.Assignment{
		ID:          r.ID,
		LectureID:   r.LectureID,
		Title:       r.Title,
		Description: r.Description,
		DueAt:       utcPtr(r.DueAt),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type submissionRow struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	StudentID    string    `db:"student_id"`
	URL          string    `db:"url"`
	Memo         string    `db:"memo"`
	Feedback     string    `db:"feedback"`
	SubmittedAt  time.Time `db:"submitted_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	ReviewedAt   null.Time `db:"reviewed_at"`
}

func (r submissionRow) toSubmission() vod.Submission {
	return vod.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		URL:          r.URL,
		Memo:         r.Memo,
		Feedback:     r.Feedback,
		SubmittedAt:  r.SubmittedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		ReviewedAt:   utcPtr(r.ReviewedAt),
	}
}

type vodRepository struct {
	db core.DB
}

var _ vod.Repository = (*vodRepository)(nil)

func NewVODRepository(db core.DB) vod.Repository {
	return &vodRepository{db: db}
}

// Lectures

func (repo *vodRepository) CreateLecture(ctx context.Context, l vod.Lecture) error {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO lectures (`+lectureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.Week, l.Title, l.Description, l.VideoURL, l.DurationSec, null.TimeFromPtr(l.PublishedAt), l.CreatedAt, l.UpdatedAt,
	)
	return errors.Wrap(err, "inserting lecture")
}

func (repo *vodRepository) UpdateLecture(ctx context.Context, l vod.Lecture) error {
	return execAffecting(ctx, repo.db, vod.ErrLectureNotFound, `
		UPDATE lectures
		SET week = ?, title = ?, description = ?, video_url = ?, duration_sec = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		l.Week, l.Title, l.Description, l.VideoURL, l.DurationSec, null.TimeFromPtr(l.PublishedAt), l.UpdatedAt, l.ID,
	)
}

func (repo *vodRepository) DeleteLecture(ctx context.Context, id string) error {
	if !isUUID(id) {
		return vod.ErrLectureNotFound
	}
	return execAffecting(ctx, repo.db, vod.ErrLectureNotFound, "DELETE FROM lectures WHERE id = ?", id)
}

func (repo *vodRepository) GetLecture(ctx context.Context, id string) (vod.Lecture, error) {
	if !isUUID(id) {
		return vod.Lecture{}, vod.ErrLectureNotFound
	}
	var row lectureRow
	if err := getOne(ctx, repo.db, &row, vod.ErrLectureNotFound, "SELECT "+lectureColumns+" FROM lectures WHERE id = ?", id); err != nil {
		return vod.Lecture{}, err
	}
	return row.toLecture(), nil
}

func (repo *vodRepository) QueryLectures(ctx context.Context, publishedOnly bool) ([]vod.Lecture, error) {
	var w whereClause
	if publishedOnly {
		w.add("published_at IS NOT NULL AND published_at <= ?", core.Now())
	}
	var rows []lectureRow
	q := "SELECT " + lectureColumns + " FROM lectures" + w.String() + " ORDER BY week ASC, created_at ASC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting lectures")
	}
	lectures := make([]vod.Lecture, 0, len(rows))
	for _, row := range rows {
		lectures = append(lectures, row.toLecture())
	}
	return lectures, nil
}

// Progress

func (repo *vodRepository) GetProgress(ctx context.Context, studentID, lectureID string) (vod.Progress, error) {
	if !isUUID(studentID) || !isUUID(lectureID) {
		return vod.Progress{}, vod.ErrProgressNotFound
	}
	var row progressRow
	err := getOne(ctx, repo.db, &row, vod.ErrProgressNotFound,
		"SELECT "+progressColumns+" FROM lecture_progress WHERE student_id = ? AND lecture_id = ?", studentID, lectureID)
	if err != nil {
		return vod.Progress{}, err
	}
	return row.toProgress(), nil
}

func (repo *vodRepository) QueryProgress(ctx context.Context, studentID string) ([]vod.Progress, error) {
	if !isUUID(studentID) {
		return []vod.Progress{}, nil
	}
	var rows []progressRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(
		"SELECT "+progressColumns+" FROM lecture_progress WHERE student_id = ?"), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	progress := make([]vod.Progress, 0, len(rows))
	for _, row := range rows {
		progress = append(progress, row.toProgress())
	}
	return progress, nil
}

// SaveProgress never moves the stored progress backwards, even when concurrent updates race.
func (repo *vodRepository) SaveProgress(ctx context.Context, p vod.Progress, awards []points.Entry) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		_, err := exec.ExecContext(ctx, exec.Rebind(`
			INSERT INTO lecture_progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (student_id, lecture_id) DO UPDATE SET
				watched_sec = GREATEST(lecture_progress.watched_sec, EXCLUDED.watched_sec),
				completed = lecture_progress.completed OR EXCLUDED.completed,
				completed_at = COALESCE(lecture_progress.completed_at, EXCLUDED.completed_at),
				updated_at = EXCLUDED.updated_at`),
			p.StudentID, p.LectureID, p.WatchedSec, p.Completed, null.TimeFromPtr(p.CompletedAt), p.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "upserting progress")
		}
		return addEntries(ctx, exec, awards)
	})
}

// Assignments

func (repo *vodRepository) CreateAssignment(ctx context.Context, a vod.Assignment) error {
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID, a.LectureID, a.Title, a.Description, null.TimeFromPtr(a.DueAt), a.CreatedAt,
	)
	return errors.Wrap(err, "inserting assignment")
}

func (repo *vodRepository) UpdateAssignment(ctx context.Context, a vod.Assignment) error {
	return execAffecting(ctx, repo.db, vod.ErrAssignmentNotFound,
		"UPDATE assignments SET title = ?, description = ?, due_at = ? WHERE id = ?",
		a.Title, a.Description, null.TimeFromPtr(a.DueAt), a.ID,
	)
}

func (repo *vodRepository) DeleteAssignment(ctx context.Context, id string) error {
	if !isUUID(id) {
		return vod.ErrAssignmentNotFound
	}
	return execAffecting(ctx, repo.db, vod.ErrAssignmentNotFound, "DELETE FROM assignments WHERE id = ?", id)
}

func (repo *vodRepository) GetAssignment(ctx context.Context, id string) (vod.Assignment, error) {
	if !isUUID(id) {
		return vod.Assignment{}, vod.ErrAssignmentNotFound
	}
	var row assignmentRow
	err := getOne(ctx, repo.db, &row, vod.ErrAssignmentNotFound, "SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id)
	if err != nil {
		return vod.Assignment{}, err
	}
	return row.toAssignment(), nil
}

func (repo *vodRepository) QueryAssignments(ctx context.Context, lectureID string) ([]vod.Assignment, error) {
	if !isUUID(lectureID) {
		return []vod.Assignment{}, nil
	}
	var rows []assignmentRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(
		"SELECT "+assignmentColumns+" FROM assignments WHERE lecture_id = ? ORDER BY created_at ASC"), lectureID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	assignments := make([]vod.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

// Submissions

func (repo *vodRepository) GetSubmission(ctx context.Context, id string) (vod.Submission, error) {
	if !isUUID(id) {
		return vod.Submission{}, vod.ErrSubmissionNotFound
	}
	var row submissionRow
	err := getOne(ctx, repo.db, &row, vod.ErrSubmissionNotFound, "SELECT "+submissionColumns+" FROM submissions WHERE id = ?", id)
	if err != nil {
		return vod.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *vodRepository) FindSubmission(ctx context.Context, assignmentID, studentID string) (vod.Submission, error) {
	if !isUUID(assignmentID) || !isUUID(studentID) {
		return vod.Submission{}, vod.ErrSubmissionNotFound
	}
	var row submissionRow
	err := getOne(ctx, repo.db, &row, vod.ErrSubmissionNotFound,
		"SELECT "+submissionColumns+" FROM submissions WHERE assignment_id = ? AND student_id = ?", assignmentID, studentID)
	if err != nil {
		return vod.Submission{}, err
	}
	return row.toSubmission(), nil
}

func (repo *vodRepository) QuerySubmissions(ctx context.Context, filter vod.SubmissionFilter) ([]vod.Submission, error) {
	var w whereClause
	if filter.AssignmentID != "" {
		if !isUUID(filter.AssignmentID) {
			return []vod.Submission{}, nil
		}
		w.add("assignment_id = ?", filter.AssignmentID)
	}
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return []vod.Submission{}, nil
		}
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Reviewed != nil {
		if *filter.Reviewed {
			w.add("reviewed_at IS NOT NULL")
		} else {
			w.add("reviewed_at IS NULL")
		}
	}

	var rows []submissionRow
	q := "SELECT " + submissionColumns + " FROM submissions" + w.String() + " ORDER BY updated_at DESC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]vod.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubmission())
	}
	return subs, nil
}

func (repo *vodRepository) SaveSubmission(ctx context.Context, s vod.Submission, awards []points.Entry) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		_, err := exec.ExecContext(ctx, exec.Rebind(`
			INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (assignment_id, student_id) DO UPDATE SET
				url = EXCLUDED.url, memo = EXCLUDED.memo, updated_at = EXCLUDED.updated_at`),
			s.ID, s.AssignmentID, s.StudentID, s.URL, s.Memo, s.Feedback, s.SubmittedAt, s.UpdatedAt, null.TimeFromPtr(s.ReviewedAt),
		)
		if err != nil {
			return errors.Wrap(err, "upserting submission")
		}
		return addEntries(ctx, exec, awards)
	})
}

func (repo *vodRepository) UpdateSubmission(ctx context.Context, s vod.Submission) error {
	return execAffecting(ctx, repo.db, vod.ErrSubmissionNotFound,
		"UPDATE submissions SET url = ?, memo = ?, feedback = ?, updated_at = ?, reviewed_at = ? WHERE id = ?",
		s.URL, s.Memo, s.Feedback, s.UpdatedAt, null.TimeFromPtr(s.ReviewedAt), s.ID,
	)
}
