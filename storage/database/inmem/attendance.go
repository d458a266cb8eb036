package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func recordKey(studentID, day string) string {
	return studentID + "/" + day
}

func (repo *attendanceRepository) GetRecord(_ context.Context, studentID, day string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.attendance[recordKey(studentID, day)]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) LatestRecord(_ context.Context, studentID string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var latest *attendance.Record
	for _, rec := range repo.db.attendance {
		if rec.StudentID == studentID && (latest == nil || rec.Day > latest.Day) {
			latest = rec
		}
	}
	if latest == nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return *latest, nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, studentID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, rec := range repo.db.attendance {
		if rec.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, studentID, from, to string) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if (studentID == "" || rec.StudentID == studentID) && rec.Day >= from && rec.Day <= to {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Day != recs[j].Day {
			return recs[i].Day < recs[j].Day
		}
		return recs[i].CheckedInAt.Before(recs[j].CheckedInAt)
	})
	return recs, nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record, awards []points.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := recordKey(rec.StudentID, rec.Day)
	if _, ok := repo.db.attendance[key]; ok {
		return attendance.ErrAlreadyCheckedIn
	}
	if _, ok := repo.db.students[rec.StudentID]; !ok {
		return student.ErrNotFound
	}
	if err := repo.db.checkEntries(awards); err != nil {
		return err
	}
	repo.db.attendance[key] = &rec
	repo.db.addEntries(awards)
	return nil
}

func (repo *attendanceRepository) DailyReport(_ context.Context, day string) ([]attendance.DailyEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := sortedStudents(repo.db.students, func(a, b *student.Student) bool {
		if a.Cohort != b.Cohort {
			return a.Cohort < b.Cohort
		}
		return a.Name < b.Name
	})
	entries := make([]attendance.DailyEntry, 0, len(students))
	for _, st := range students {
		if !st.Active() || !st.IsStudent() {
			continue
		}
		entry := attendance.DailyEntry{StudentID: st.ID, Name: st.Name, Cohort: st.Cohort}
		if rec, ok := repo.db.attendance[recordKey(st.ID, day)]; ok {
			t := rec.CheckedInAt
			entry.CheckedIn = true
			entry.CheckedInAt = &t
			entry.Streak = rec.Streak
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
