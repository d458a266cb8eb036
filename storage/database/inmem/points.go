package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

type pointsRepository struct {
	db *DB
}

var _ points.Repository = (*pointsRepository)(nil)

func NewPointsRepository(db *DB) points.Repository {
	return &pointsRepository{db: db}
}

func (repo *pointsRepository) AddEntries(_ context.Context, entries ...points.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.db.checkEntries(entries); err != nil {
		return err
	}
	repo.db.addEntries(entries)
	return nil
}

func (repo *pointsRepository) QueryEntries(_ context.Context, studentID string) ([]points.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]points.Entry, 0)
	for _, e := range repo.db.entries {
		if e.StudentID == studentID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (repo *pointsRepository) Standings(context.Context) ([]points.Standing, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := sortedStudents(repo.db.students, func(a, b *student.Student) bool {
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Name < b.Name
	})
	standings := make([]points.Standing, 0, len(students))
	for _, st := range students {
		if !ranked(st) {
			continue
		}
		standings = append(standings, points.Standing{StudentID: st.ID, Name: st.Name, Cohort: st.Cohort, Points: st.Points})
	}
	return standings, nil
}

// ranked reports whether st appears in standings & reports.
func ranked(st student.Student) bool {
	return st.Active() && st.IsStudent() && !st.IsAdmin()
}
