package inmemdb

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/earning"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
)

// DB keeps every table in memory, guarded by a single mutex so that
// multi-table writes (a record and its point awards) are atomic.
type DB struct {
	mutex sync.RWMutex

	students    map[string]*student.Student
	entries     []points.Entry
	awarded     map[awardKey]bool
	attendance  map[string]*attendance.Record
	posts       map[string]*growth.Post
	lectures    map[string]*vod.Lecture
	progress    map[progressKey]*vod.Progress
	assignments map[string]*vod.Assignment
	submissions map[string]*vod.Submission
	questions   map[string]*qna.Question
	slots       map[string]*consult.Slot
	earnings    map[string]*earning.Earning
}

type (
	awardKey struct {
		studentID, source, sourceID string
	}

	progressKey struct {
		studentID, lectureID string
	}
)

func Open() *DB {
	return &DB{
		students:    make(map[string]*student.Student),
		awarded:     make(map[awardKey]bool),
		attendance:  make(map[string]*attendance.Record),
		posts:       make(map[string]*growth.Post),
		lectures:    make(map[string]*vod.Lecture),
		progress:    make(map[progressKey]*vod.Progress),
		assignments: make(map[string]*vod.Assignment),
		submissions: make(map[string]*vod.Submission),
		questions:   make(map[string]*qna.Question),
		slots:       make(map[string]*consult.Slot),
		earnings:    make(map[string]*earning.Earning),
	}
}

// checkEntries must be called with the lock held.
func (db *DB) checkEntries(entries []points.Entry) error {
	for _, e := range entries {
		if _, ok := db.students[e.StudentID]; !ok {
			return points.ErrStudentNotFound
		}
	}
	return nil
}

// addEntries must be called with the lock held, after checkEntries.
// Automatic awards already in the ledger are skipped.
func (db *DB) addEntries(entries []points.Entry) {
	for _, e := range entries {
		if e.Source != points.SourceManual {
			key := awardKey{e.StudentID, e.Source, e.SourceID}
			if db.awarded[key] {
				continue
			}
			db.awarded[key] = true
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		db.entries = append(db.entries, e)
		db.students[e.StudentID].Points += e.Amount
	}
}

// deleteStudent must be called with the lock held. It mirrors the SQL foreign keys.
func (db *DB) deleteStudent(id string) bool {
	if _, ok := db.students[id]; !ok {
		return false
	}
	delete(db.students, id)

	entries := db.entries[:0]
	for _, e := range db.entries {
		if e.StudentID != id {
			entries = append(entries, e)
		}
	}
	db.entries = entries
	for key := range db.awarded {
		if key.studentID == id {
			delete(db.awarded, key)
		}
	}
	for k, rec := range db.attendance {
		if rec.StudentID == id {
			delete(db.attendance, k)
		}
	}
	for k, p := range db.posts {
		if p.StudentID == id {
			delete(db.posts, k)
		}
	}
	for k := range db.progress {
		if k.studentID == id {
			delete(db.progress, k)
		}
	}
	for k, s := range db.submissions {
		if s.StudentID == id {
			delete(db.submissions, k)
		}
	}
	for k, q := range db.questions {
		if q.StudentID == id {
			delete(db.questions, k)
		}
	}
	for k, e := range db.earnings {
		if e.StudentID == id {
			delete(db.earnings, k)
		}
	}
	for _, s := range db.slots {
		if s.StudentID == id {
			s.StudentID = ""
		}
	}
	return true
}

func sortedStudents(m map[string]*student.Student, less func(a, b *student.Student) bool) []student.Student {
	ptrs := make([]*student.Student, 0, len(m))
	for _, st := range m {
		ptrs = append(ptrs, st)
	}
	sort.SliceStable(ptrs, func(i, j int) bool { return less(ptrs[i], ptrs[j]) })
	students := make([]student.Student, 0, len(ptrs))
	for _, st := range ptrs {
		students = append(students, copyStudent(*st))
	}
	return students
}

func copyStudent(st student.Student) student.Student {
	if st.Roles != nil {
		st.Roles = append([]string{}, st.Roles...)
	}
	if st.IsActive != nil {
		st.SetActive(*st.IsActive)
	}
	return st
}
