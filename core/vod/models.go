package vod

import (
	"time"

	"github.com/trezcool/blogclass/core"
)

const (
	// CompletionRatio is the share of a lecture to watch for it to count as completed.
	CompletionRatio = 0.9

	LecturePoints    = 20
	SubmissionPoints = 30
)

type Lecture struct {
	ID          string     `json:"id"`
	Week        int        `json:"week"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VideoURL    string     `json:"video_url"`
	DurationSec int        `json:"duration_sec"`
	PublishedAt *time.Time `json:"published_at"` // UTC; nil while drafted
	CreatedAt   time.Time  `json:"created_at"`   // UTC
	UpdatedAt   time.Time  `json:"updated_at"`   // UTC
}

// Published reports whether students can see the lecture at t.
func (l *Lecture) Published(t time.Time) bool {
	return l.PublishedAt != nil && !l.PublishedAt.After(t)
}

// LectureInput creates or replaces a Lecture.
type LectureInput struct {
	Week        int        `json:"week" validate:"gte=1"`
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	VideoURL    string     `json:"video_url" validate:"required,url"`
	DurationSec int        `json:"duration_sec" validate:"gt=0"`
	PublishedAt *time.Time `json:"published_at"`
}

func (in *LectureInput) Clean() {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	in.VideoURL = core.CleanString(in.VideoURL)
	if in.PublishedAt != nil {
		t := in.PublishedAt.UTC()
		in.PublishedAt = &t
	}
}

// Progress tracks how much of a lecture a student watched.
type Progress struct {
	StudentID   string     `json:"student_id"`
	LectureID   string     `json:"lecture_id"`
	WatchedSec  int        `json:"watched_sec"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ProgressInput struct {
	WatchedSec int `json:"watched_sec" validate:"gte=0"`
}

// Advance returns p moved to the watched position: progress never goes backwards and
// stays completed once completed. The second value reports whether p got completed now.
func (p Progress) Advance(l Lecture, watchedSec int, now time.Time) (Progress, bool) {
	if watchedSec > l.DurationSec {
		watchedSec = l.DurationSec
	}
	if watchedSec > p.WatchedSec {
		p.WatchedSec = watchedSec
	}
	p.UpdatedAt = now

	if p.Completed {
		return p, false
	}
	if float64(p.WatchedSec) >= CompletionRatio*float64(l.DurationSec) {
		p.Completed = true
		p.CompletedAt = &now
		return p, true
	}
	return p, false
}

// LectureView is a lecture as listed to a student.
type LectureView struct {
	Lecture
	Progress *Progress `json:"progress"`
}

// Completion sums up the lectures a student completed.
type Completion struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
}

type Assignment struct {
	ID          string     `json:"id"`
	LectureID   string     `json:"lecture_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`     // UTC; nil means no due date
	CreatedAt   time.Time  `json:"created_at"` // UTC
}

// PastDue reports whether submissions are closed at t.
func (a *Assignment) PastDue(t time.Time) bool {
	return a.DueAt != nil && t.After(*a.DueAt)
}

type AssignmentInput struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	DueAt       *time.Time `json:"due_at"`
}

func (in *AssignmentInput) Clean() {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	if in.DueAt != nil {
		t := in.DueAt.UTC()
		in.DueAt = &t
	}
}

// Submission is a student's answer to an Assignment; one per (assignment, student).
type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	URL          string     `json:"url"`
	Memo         string     `json:"memo"`
	Feedback     string     `json:"feedback"`
	SubmittedAt  time.Time  `json:"submitted_at"` // UTC; first submission
	UpdatedAt    time.Time  `json:"updated_at"`   // UTC
	ReviewedAt   *time.Time `json:"reviewed_at"`  // UTC
}

type SubmissionInput struct {
	URL  string `json:"url" validate:"required,url,max=500"`
	Memo string `json:"memo" validate:"max=1000"`
}

func (in *SubmissionInput) Clean() {
	in.URL = core.CleanString(in.URL)
	in.Memo = core.CleanString(in.Memo)
}

type FeedbackInput struct {
	Feedback string `json:"feedback" validate:"required,notblank,max=5000"`
}

type SubmissionFilter struct {
	AssignmentID string `query:"assignment_id"`
	StudentID    string `query:"student_id"`
	Reviewed     *bool  `query:"reviewed"`
}
