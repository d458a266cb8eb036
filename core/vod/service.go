package vod

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

var (
	// errors
	ErrLectureNotFound    = core.NewNotFoundError("lecture not found")
	ErrProgressNotFound   = core.NewNotFoundError("progress not found")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment not found")
	ErrSubmissionNotFound = core.NewNotFoundError("submission not found")
	ErrPastDue            = errors.New("the due date has passed")
)

type (
	Repository interface {
		CreateLecture(ctx context.Context, l Lecture) error
		UpdateLecture(ctx context.Context, l Lecture) error
		DeleteLecture(ctx context.Context, id string) error
		GetLecture(ctx context.Context, id string) (Lecture, error)
		// QueryLectures returns lectures by week; publishedOnly keeps those published at core.Now().
		QueryLectures(ctx context.Context, publishedOnly bool) ([]Lecture, error)

		GetProgress(ctx context.Context, studentID, lectureID string) (Progress, error)
		QueryProgress(ctx context.Context, studentID string) ([]Progress, error)
		// SaveProgress upserts p and saves awards atomically.
		SaveProgress(ctx context.Context, p Progress, awards []points.Entry) error

		CreateAssignment(ctx context.Context, a Assignment) error
		UpdateAssignment(ctx context.Context, a Assignment) error
		DeleteAssignment(ctx context.Context, id string) error
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, lectureID string) ([]Assignment, error)

		GetSubmission(ctx context.Context, id string) (Submission, error)
		FindSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		// SaveSubmission upserts s on (AssignmentID, StudentID) and saves awards atomically.
		SaveSubmission(ctx context.Context, s Submission, awards []points.Entry) error
		UpdateSubmission(ctx context.Context, s Submission) error
	}

	Service interface {
		CreateLecture(ctx context.Context, in LectureInput) (Lecture, error)
		UpdateLecture(ctx context.Context, id string, in LectureInput) (Lecture, error)
		DeleteLecture(ctx context.Context, id string) error
		GetLecture(ctx context.Context, actor student.Student, id string) (LectureView, error)
		QueryLectures(ctx context.Context, actor student.Student) ([]LectureView, error)
		UpdateProgress(ctx context.Context, st student.Student, lectureID string, in ProgressInput) (Progress, error)
		Completion(ctx context.Context, studentID string) (Completion, error)

		CreateAssignment(ctx context.Context, lectureID string, in AssignmentInput) (Assignment, error)
		UpdateAssignment(ctx context.Context, id string, in AssignmentInput) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
		QueryAssignments(ctx context.Context, actor student.Student, lectureID string) ([]Assignment, error)

		Submit(ctx context.Context, st student.Student, assignmentID string, in SubmissionInput) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		LeaveFeedback(ctx context.Context, id string, in FeedbackInput) (Submission, error)
	}

	service struct {
		repo      Repository
		pointsSvc points.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, pointsSvc points.Service) Service {
	return &service{repo: repo, pointsSvc: pointsSvc}
}

// Lectures

func (svc *service) CreateLecture(ctx context.Context, in LectureInput) (Lecture, error) {
	now := core.Now()
	l := Lecture{ID: uuid.NewString(), CreatedAt: now}
	l = in.apply(l, now)
	if err := svc.repo.CreateLecture(ctx, l); err != nil {
		return Lecture{}, errors.Wrap(err, "creating lecture")
	}
	return l, nil
}

func (in LectureInput) apply(l Lecture, now time.Time) Lecture {
	l.Week = in.Week
	l.Title = in.Title
	l.Description = in.Description
	l.VideoURL = in.VideoURL
	l.DurationSec = in.DurationSec
	l.PublishedAt = in.PublishedAt
	l.UpdatedAt = now
	return l
}

func (svc *service) UpdateLecture(ctx context.Context, id string, in LectureInput) (Lecture, error) {
	l, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	l = in.apply(l, core.Now())
	if err = svc.repo.UpdateLecture(ctx, l); err != nil {
		return Lecture{}, errors.Wrap(err, "updating lecture")
	}
	return l, nil
}

func (svc *service) DeleteLecture(ctx context.Context, id string) error {
	return svc.repo.DeleteLecture(ctx, id)
}

// visibleLecture returns the lecture if actor may see it: admins see drafts too.
func (svc *service) visibleLecture(ctx context.Context, actor student.Student, id string) (Lecture, error) {
	l, err := svc.repo.GetLecture(ctx, id)
	if err != nil {
		return Lecture{}, err
	}
	if !actor.IsAdmin() && !l.Published(core.Now()) {
		return Lecture{}, ErrLectureNotFound
	}
	return l, nil
}

func (svc *service) GetLecture(ctx context.Context, actor student.Student, id string) (LectureView, error) {
	l, err := svc.visibleLecture(ctx, actor, id)
	if err != nil {
		return LectureView{}, err
	}
	view := LectureView{Lecture: l}
	p, err := svc.repo.GetProgress(ctx, actor.ID, l.ID)
	switch {
	case err == nil:
		view.Progress = &p
	case errors.Cause(err) != ErrProgressNotFound:
		return LectureView{}, errors.Wrap(err, "getting progress")
	}
	return view, nil
}

func (svc *service) QueryLectures(ctx context.Context, actor student.Student) ([]LectureView, error) {
	lectures, err := svc.repo.QueryLectures(ctx, !actor.IsAdmin())
	if err != nil {
		return nil, errors.Wrap(err, "querying lectures")
	}
	progress, err := svc.repo.QueryProgress(ctx, actor.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	byLecture := make(map[string]Progress, len(progress))
	for _, p := range progress {
		byLecture[p.LectureID] = p
	}

	views := make([]LectureView, 0, len(lectures))
	for _, l := range lectures {
		view := LectureView{Lecture: l}
		if p, ok := byLecture[l.ID]; ok {
			p := p
			view.Progress = &p
		}
		views = append(views, view)
	}
	return views, nil
}

func (svc *service) UpdateProgress(ctx context.Context, st student.Student, lectureID string, in ProgressInput) (Progress, error) {
	l, err := svc.visibleLecture(ctx, st, lectureID)
	if err != nil {
		return Progress{}, err
	}

	p, err := svc.repo.GetProgress(ctx, st.ID, l.ID)
	if err != nil {
		if errors.Cause(err) != ErrProgressNotFound {
			return Progress{}, errors.Wrap(err, "getting progress")
		}
		p = Progress{StudentID: st.ID, LectureID: l.ID}
	}

	p, completed := p.Advance(l, in.WatchedSec, core.Now())
	var awards []points.Entry
	if completed {
		awards = append(awards, points.NewEntry(
			st.ID, LecturePoints, points.SourceLecture, l.ID, fmt.Sprintf("%d주차 강의 수강 완료: %s", l.Week, l.Title),
		))
	}
	if err = svc.repo.SaveProgress(ctx, p, awards); err != nil {
		return Progress{}, errors.Wrap(err, "saving progress")
	}
	svc.pointsSvc.Awarded(ctx, awards...)
	return p, nil
}

func (svc *service) Completion(ctx context.Context, studentID string) (Completion, error) {
	lectures, err := svc.repo.QueryLectures(ctx, true /* publishedOnly */)
	if err != nil {
		return Completion{}, errors.Wrap(err, "querying lectures")
	}
	progress, err := svc.repo.QueryProgress(ctx, studentID)
	if err != nil {
		return Completion{}, errors.Wrap(err, "querying progress")
	}
	completed := make(map[string]bool, len(progress))
	for _, p := range progress {
		completed[p.LectureID] = p.Completed
	}

	c := Completion{Total: len(lectures)}
	for _, l := range lectures {
		if completed[l.ID] {
			c.Completed++
		}
	}
	if c.Total > 0 {
		c.Ratio = float64(c.Completed) / float64(c.Total)
	}
	return c, nil
}

// Assignments

func (svc *service) CreateAssignment(ctx context.Context, lectureID string, in AssignmentInput) (Assignment, error) {
	l, err := svc.repo.GetLecture(ctx, lectureID)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:          uuid.NewString(),
		LectureID:   l.ID,
		Title:       in.Title,
		Description: in.Description,
		DueAt:       in.DueAt,
		CreatedAt:   core.Now(),
	}
	if err = svc.repo.CreateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (svc *service) UpdateAssignment(ctx context.Context, id string, in AssignmentInput) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	a.Title = in.Title
	a.Description = in.Description
	a.DueAt = in.DueAt
	if err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (svc *service) DeleteAssignment(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *service) QueryAssignments(ctx context.Context, actor student.Student, lectureID string) ([]Assignment, error) {
	l, err := svc.visibleLecture(ctx, actor, lectureID)
	if err != nil {
		return nil, err
	}
	assignments, err := svc.repo.QueryAssignments(ctx, l.ID)
	return assignments, errors.Wrap(err, "querying assignments")
}

// Submissions

// Submit creates or replaces the submission of st. The first submission is rewarded.
func (svc *service) Submit(ctx context.Context, st student.Student, assignmentID string, in SubmissionInput) (Submission, error) {
	a, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	if _, err = svc.visibleLecture(ctx, st, a.LectureID); err != nil {
		if core.IsNotFound(err) {
			return Submission{}, ErrAssignmentNotFound
		}
		return Submission{}, err
	}

	now := core.Now()
	if a.PastDue(now) {
		return Submission{}, core.NewValidationError(ErrPastDue)
	}

	var awards []points.Entry
	s, err := svc.repo.FindSubmission(ctx, a.ID, st.ID)
	if err != nil {
		if errors.Cause(err) != ErrSubmissionNotFound {
			return Submission{}, errors.Wrap(err, "finding submission")
		}
		s = Submission{ID: uuid.NewString(), AssignmentID: a.ID, StudentID: st.ID, SubmittedAt: now}
		awards = append(awards, points.NewEntry(st.ID, SubmissionPoints, points.SourceAssignment, a.ID, "과제 제출: "+a.Title))
	}
	s.URL = in.URL
	s.Memo = in.Memo
	s.UpdatedAt = now

	if err = svc.repo.SaveSubmission(ctx, s, awards); err != nil {
		return Submission{}, errors.Wrap(err, "saving submission")
	}
	svc.pointsSvc.Awarded(ctx, awards...)
	return s, nil
}

func (svc *service) QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	subs, err := svc.repo.QuerySubmissions(ctx, filter)
	return subs, errors.Wrap(err, "querying submissions")
}

func (svc *service) LeaveFeedback(ctx context.Context, id string, in FeedbackInput) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	now := core.Now()
	s.Feedback = core.CleanString(in.Feedback)
	s.ReviewedAt = &now
	if err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, errors.Wrap(err, "updating submission")
	}
	return s, nil
}
