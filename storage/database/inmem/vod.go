package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
)

type vodRepository struct {
	db *DB
}

var _ vod.Repository = (*vodRepository)(nil)

func NewVODRepository(db *DB) vod.Repository {
	return &vodRepository{db: db}
}

// Lectures

func (repo *vodRepository) CreateLecture(_ context.Context, l vod.Lecture) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.lectures[l.ID] = &l
	return nil
}

func (repo *vodRepository) UpdateLecture(_ context.Context, l vod.Lecture) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.lectures[l.ID]
	if !ok {
		return vod.ErrLectureNotFound
	}
	l.CreatedAt = orig.CreatedAt
	repo.db.lectures[l.ID] = &l
	return nil
}

func (repo *vodRepository) DeleteLecture(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lectures[id]; !ok {
		return vod.ErrLectureNotFound
	}
	delete(repo.db.lectures, id)
	for k := range repo.db.progress {
		if k.lectureID == id {
			delete(repo.db.progress, k)
		}
	}
	for aID, a := range repo.db.assignments {
		if a.LectureID == id {
			repo.deleteAssignment(aID)
		}
	}
	return nil
}

func (repo *vodRepository) GetLecture(_ context.Context, id string) (vod.Lecture, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.lectures[id]; ok {
		return *l, nil
	}
	return vod.Lecture{}, vod.ErrLectureNotFound
}

func (repo *vodRepository) QueryLectures(_ context.Context, publishedOnly bool) ([]vod.Lecture, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	now := core.Now()
	lectures := make([]vod.Lecture, 0, len(repo.db.lectures))
	for _, l := range repo.db.lectures {
		if publishedOnly && !l.Published(now) {
			continue
		}
		lectures = append(lectures, *l)
	}
	sort.Slice(lectures, func(i, j int) bool {
		if lectures[i].Week != lectures[j].Week {
			return lectures[i].Week < lectures[j].Week
		}
		return lectures[i].CreatedAt.Before(lectures[j].CreatedAt)
	})
	return lectures, nil
}

// Progress

func (repo *vodRepository) GetProgress(_ context.Context, studentID, lectureID string) (vod.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.progress[progressKey{studentID, lectureID}]; ok {
		return *p, nil
	}
	return vod.Progress{}, vod.ErrProgressNotFound
}

func (repo *vodRepository) QueryProgress(_ context.Context, studentID string) ([]vod.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progress := make([]vod.Progress, 0)
	for k, p := range repo.db.progress {
		if k.studentID == studentID {
			progress = append(progress, *p)
		}
	}
	return progress, nil
}

func (repo *vodRepository) SaveProgress(_ context.Context, p vod.Progress, awards []points.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[p.StudentID]; !ok {
		return student.ErrNotFound
	}
	if _, ok := repo.db.lectures[p.LectureID]; !ok {
		return vod.ErrLectureNotFound
	}
	if err := repo.db.checkEntries(awards); err != nil {
		return err
	}

	key := progressKey{p.StudentID, p.LectureID}
	if orig, ok := repo.db.progress[key]; ok {
		// progress never moves backwards
		if orig.WatchedSec > p.WatchedSec {
			p.WatchedSec = orig.WatchedSec
		}
		p.Completed = p.Completed || orig.Completed
		if orig.CompletedAt != nil {
			p.CompletedAt = orig.CompletedAt
		}
	}
	repo.db.progress[key] = &p
	repo.db.addEntries(awards)
	return nil
}

// Assignments

func (repo *vodRepository) CreateAssignment(_ context.Context, a vod.Assignment) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.lectures[a.LectureID]; !ok {
		return vod.ErrLectureNotFound
	}
	repo.db.assignments[a.ID] = &a
	return nil
}

func (repo *vodRepository) UpdateAssignment(_ context.Context, a vod.Assignment) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		return vod.ErrAssignmentNotFound
	}
	orig.Title = a.Title
	orig.Description = a.Description
	orig.DueAt = a.DueAt
	return nil
}

func (repo *vodRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return vod.ErrAssignmentNotFound
	}
	repo.deleteAssignment(id)
	return nil
}

// deleteAssignment must be called with the lock held.
func (repo *vodRepository) deleteAssignment(id string) {
	delete(repo.db.assignments, id)
	for sID, s := range repo.db.submissions {
		if s.AssignmentID == id {
			delete(repo.db.submissions, sID)
		}
	}
}

func (repo *vodRepository) GetAssignment(_ context.Context, id string) (vod.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return vod.Assignment{}, vod.ErrAssignmentNotFound
}

func (repo *vodRepository) QueryAssignments(_ context.Context, lectureID string) ([]vod.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]vod.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.LectureID == lectureID {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].CreatedAt.Before(assignments[j].CreatedAt) })
	return assignments, nil
}

// Submissions

func (repo *vodRepository) GetSubmission(_ context.Context, id string) (vod.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return *s, nil
	}
	return vod.Submission{}, vod.ErrSubmissionNotFound
}

func (repo *vodRepository) findSubmission(assignmentID, studentID string) *vod.Submission {
	for _, s := range repo.db.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			return s
		}
	}
	return nil
}

func (repo *vodRepository) FindSubmission(_ context.Context, assignmentID, studentID string) (vod.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s := repo.findSubmission(assignmentID, studentID); s != nil {
		return *s, nil
	}
	return vod.Submission{}, vod.ErrSubmissionNotFound
}

func (repo *vodRepository) QuerySubmissions(_ context.Context, filter vod.SubmissionFilter) ([]vod.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]vod.Submission, 0)
	for _, s := range repo.db.submissions {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		if filter.Reviewed != nil && (s.ReviewedAt != nil) != *filter.Reviewed {
			continue
		}
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].UpdatedAt.After(subs[j].UpdatedAt) })
	return subs, nil
}

func (repo *vodRepository) SaveSubmission(_ context.Context, s vod.Submission, awards []points.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[s.StudentID]; !ok {
		return student.ErrNotFound
	}
	if _, ok := repo.db.assignments[s.AssignmentID]; !ok {
		return vod.ErrAssignmentNotFound
	}
	if err := repo.db.checkEntries(awards); err != nil {
		return err
	}

	if orig := repo.findSubmission(s.AssignmentID, s.StudentID); orig != nil {
		orig.URL = s.URL
		orig.Memo = s.Memo
		orig.UpdatedAt = s.UpdatedAt
	} else {
		repo.db.submissions[s.ID] = &s
	}
	repo.db.addEntries(awards)
	return nil
}

func (repo *vodRepository) UpdateSubmission(_ context.Context, s vod.Submission) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.submissions[s.ID]; !ok {
		return vod.ErrSubmissionNotFound
	}
	repo.db.submissions[s.ID] = &s
	return nil
}
