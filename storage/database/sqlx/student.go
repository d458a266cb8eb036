package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/storage/database"
)

const studentColumns = `id, name, username, email, phone, cohort, blog_url, is_active, roles,
points, post_count, password_hash, created_at, updated_at, last_login`

var studentOrderings = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"cohort":     "cohort",
	"points":     "points",
	"post_count": "post_count",
	"is_active":  "is_active",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_login": "last_login",
}

type studentRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	Phone        string         `db:"phone"`
	Cohort       int            `db:"cohort"`
	BlogURL      string         `db:"blog_url"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	Points       int            `db:"points"`
	PostCount    int            `db:"post_count"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func newStudentRow(st student.Student) studentRow {
	return studentRow{
		ID:           st.ID,
		Name:         st.Name,
		Username:     null.NewString(st.Username, st.Username != ""),
		Email:        null.NewString(st.Email, st.Email != ""),
		Phone:        st.Phone,
		Cohort:       st.Cohort,
		BlogURL:      st.BlogURL,
		IsActive:     st.Active(),
		Roles:        pq.StringArray(st.Roles),
		Points:       st.Points,
		PostCount:    st.PostCount,
		PasswordHash: st.PasswordHash,
		CreatedAt:    st.CreatedAt,
		UpdatedAt:    st.UpdatedAt,
		LastLogin:    null.NewTime(st.LastLogin, !st.LastLogin.IsZero()),
	}
}

func (r studentRow) toStudent() student.Student {
	st := student.Student{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email.String,
		Phone:        r.Phone,
		Cohort:       r.Cohort,
		BlogURL:      r.BlogURL,
		Roles:        []string(r.Roles),
		Points:       r.Points,
		PostCount:    r.PostCount,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if st.Roles == nil {
		st.Roles = []string{}
	}
	if r.LastLogin.Valid {
		st.LastLogin = r.LastLogin.Time.UTC()
	}
	st.SetActive(r.IsActive)
	return st
}

type studentRepository struct {
	db core.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db core.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, username, email string, excluded []student.Student) error {
	var w whereClause
	w.add("(username = ? OR email = ?)", username, email)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, st := range excluded {
			ids = append(ids, st.ID)
		}
		w.add("id NOT IN (?)", ids)
	}

	var rows []studentRow
	if err := selectIn(ctx, repo.db, &rows, "SELECT "+studentColumns+" FROM students"+w.String()+" LIMIT 2", w.args...); err != nil {
		return errors.Wrap(err, "selecting students")
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return student.ErrUsernameExists
		}
		if email != "" && row.Email.String == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

// uniquenessErr maps unique violations to their student errors.
func uniquenessErr(err error) error {
	switch {
	case database.IsUniqueViolation(err, "students_username_key"):
		return student.ErrUsernameExists
	case database.IsUniqueViolation(err, "students_email_key"):
		return student.ErrEmailExists
	}
	return err
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if st.ID == "" {
		st.ID = newID()
	}
	row := newStudentRow(st)
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		row.ID, row.Name, row.Username, row.Email, row.Phone, row.Cohort, row.BlogURL, row.IsActive, row.Roles,
		row.Points, row.PostCount, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(uniquenessErr(err), "inserting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) QueryStudents(
	ctx context.Context,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
) ([]student.Student, error) {
	var w whereClause
	if filter != nil {
		if filter.Search != "" {
			pattern := "%" + strings.ToLower(filter.Search) + "%"
			w.add("(LOWER(name) LIKE ? OR username LIKE ? OR email LIKE ?)", pattern, pattern, pattern)
		}
		if len(filter.Roles) > 0 {
			patterns := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				patterns = append(patterns, strings.NewReplacer("%", `\%`, "_", `\_`).Replace(role)+"%")
			}
			w.add("EXISTS (SELECT 1 FROM unnest(roles) AS role WHERE role LIKE ANY (?))", pq.StringArray(patterns))
		}
		if filter.Cohort > 0 {
			w.add("cohort = ?", filter.Cohort)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	q := "SELECT " + studentColumns + " FROM students" + w.String() + orderBy(ordering, studentOrderings, "created_at DESC")
	var rows []studentRow
	if err := selectIn(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var w whereClause
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return student.Student{}, student.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Username != "":
		w.add("username = ?", filter.Username)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case len(filter.UsernameOrEmail) == 1:
		w.add("(username = ? OR email = ?)", filter.UsernameOrEmail[0], filter.UsernameOrEmail[0])
	case len(filter.UsernameOrEmail) > 1:
		w.add("(username = ? OR email = ?)", filter.UsernameOrEmail[0], filter.UsernameOrEmail[1])
	default:
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	err := getOne(ctx, repo.db, &row, student.ErrNotFound, "SELECT "+studentColumns+" FROM students"+w.String()+" LIMIT 1", w.args...)
	if err != nil {
		return student.Student{}, err
	}
	return row.toStudent(), nil
}

// UpdateStudent saves the profile of st. Points & post count are owned by their ledgers and left untouched.
func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	row := newStudentRow(st)
	var updated studentRow
	err := getOne(ctx, repo.db, &updated, student.ErrNotFound, `
		UPDATE students
		SET name = ?, username = ?, email = ?, phone = ?, cohort = ?, blog_url = ?, is_active = ?, roles = ?,
			password_hash = ?, updated_at = ?, last_login = ?
		WHERE id = ?
		RETURNING `+studentColumns,
		row.Name, row.Username, row.Email, row.Phone, row.Cohort, row.BlogURL, row.IsActive, row.Roles,
		row.PasswordHash, row.UpdatedAt, row.LastLogin, row.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(uniquenessErr(err), "updating student")
	}
	return updated.toStudent(), nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids []string) (int, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM students WHERE id = ANY (?)"), pq.StringArray(valid))
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	n, err := res.RowsAffected()
	return int(n), err
}
