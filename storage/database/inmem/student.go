package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, username, email string, excluded []student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.checkUniqueness(username, email, excluded)
}

func (repo *studentRepository) checkUniqueness(username, email string, excluded []student.Student) error {
	for _, st := range repo.db.students {
		if isExcluded(st.ID, excluded) {
			continue
		}
		if username != "" && st.Username == username {
			return student.ErrUsernameExists
		}
		if email != "" && st.Email == email {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(st.Username, st.Email, nil); err != nil {
		return student.Student{}, err
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Roles == nil {
		st.Roles = []string{}
	}
	st.SetActive(st.Active())
	saved := copyStudent(st)
	repo.db.students[st.ID] = &saved
	return copyStudent(saved), nil
}

func (repo *studentRepository) QueryStudents(
	_ context.Context,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := sortedStudents(repo.db.students, studentLess(ordering))
	if filter == nil || filter.IsEmpty() {
		return students, nil
	}

	matching := make([]student.Student, 0, len(students))
	for _, st := range students {
		if matchStudent(st, filter) {
			matching = append(matching, st)
		}
	}
	return matching, nil
}

func matchStudent(st student.Student, filter *student.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(st.Name), search) &&
			!strings.Contains(st.Username, search) &&
			!strings.Contains(st.Email, search) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var ok bool
		for _, role := range filter.Roles {
			if st.RoleStartsWith(role) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if filter.Cohort > 0 && st.Cohort != filter.Cohort {
		return false
	}
	if filter.IsActive != nil && st.Active() != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && st.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && st.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

// studentLess orders students on the known fields, newest first by default.
func studentLess(ordering []core.DBOrdering) func(a, b *student.Student) bool {
	return func(a, b *student.Student) bool {
		for _, ord := range ordering {
			cmp := compareStudents(a, b, ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
}

func compareStudents(a, b *student.Student, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "cohort":
		return a.Cohort - b.Cohort
	case "points":
		return a.Points - b.Points
	case "post_count":
		return a.PostCount - b.PostCount
	case "is_active":
		return boolToInt(a.Active()) - boolToInt(b.Active())
	case "created_at":
		return compareTimes(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	case "updated_at":
		return compareTimes(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
	case "last_login":
		return compareTimes(a.LastLogin.UnixNano(), b.LastLogin.UnixNano())
	}
	return 0
}

func compareTimes(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var match func(st *student.Student) bool
	switch {
	case filter.ID != "":
		if st, ok := repo.db.students[filter.ID]; ok {
			return copyStudent(*st), nil
		}
		return student.Student{}, student.ErrNotFound
	case filter.Username != "":
		match = func(st *student.Student) bool { return st.Username == filter.Username }
	case filter.Email != "":
		match = func(st *student.Student) bool { return st.Email == filter.Email }
	case len(filter.UsernameOrEmail) > 0:
		uname, email := filter.UsernameOrEmail[0], filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		match = func(st *student.Student) bool {
			return (uname != "" && st.Username == uname) || (email != "" && st.Email == email)
		}
	default:
		return student.Student{}, student.ErrNotFound
	}

	for _, st := range repo.db.students {
		if match(st) {
			return copyStudent(*st), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.checkUniqueness(st.Username, st.Email, []student.Student{st}); err != nil {
		return student.Student{}, err
	}

	// points & post count are owned by their ledgers
	st.Points = orig.Points
	st.PostCount = orig.PostCount
	st.CreatedAt = orig.CreatedAt
	if st.Roles == nil {
		st.Roles = []string{}
	}
	st.SetActive(st.Active())
	saved := copyStudent(st)
	repo.db.students[st.ID] = &saved
	return copyStudent(saved), nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if repo.db.deleteStudent(id) {
			n++
		}
	}
	return n, nil
}

func isExcluded(id string, excluded []student.Student) bool {
	for _, st := range excluded {
		if st.ID == id {
			return true
		}
	}
	return false
}
