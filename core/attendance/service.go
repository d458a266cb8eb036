package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("attendance record not found")
	ErrAlreadyCheckedIn = core.NewConflictError("already checked in today")
)

type (
	Repository interface {
		GetRecord(ctx context.Context, studentID, day string) (Record, error)
		// LatestRecord returns the most recent record of a student, or ErrNotFound.
		LatestRecord(ctx context.Context, studentID string) (Record, error)
		CountRecords(ctx context.Context, studentID string) (int, error)
		// QueryRecords returns the records between from and to (inclusive days), oldest first.
		// An empty studentID selects every student.
		QueryRecords(ctx context.Context, studentID, from, to string) ([]Record, error)
		// CreateRecord saves rec and its awards atomically.
		// It returns ErrAlreadyCheckedIn if the student already has a record on rec.Day.
		CreateRecord(ctx context.Context, rec Record, awards []points.Entry) error
		DailyReport(ctx context.Context, day string) ([]DailyEntry, error)
	}

	Service interface {
		CheckIn(ctx context.Context, st student.Student) (CheckInResult, error)
		Status(ctx context.Context, studentID string) (Status, error)
		History(ctx context.Context, studentID, month string) ([]Record, error)
		Month(ctx context.Context, month string) ([]Record, error)
		DailyReport(ctx context.Context, day string) ([]DailyEntry, error)
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

func (svc *service) CheckIn(ctx context.Context, st student.Student) (CheckInResult, error) {
	now := core.NowFunc()
	today := core.Day(now)
	yesterday, err := core.AddDays(today, -1)
	if err != nil {
		return CheckInResult{}, err
	}

	latest, err := svc.latest(ctx, st.ID)
	if err != nil {
		return CheckInResult{}, err
	}
	if latest != nil && latest.Day == today {
		return CheckInResult{}, ErrAlreadyCheckedIn
	}

	streak := NextStreak(latest, yesterday)
	bonus := BonusFor(streak)
	rec := Record{
		ID:          uuid.NewString(),
		StudentID:   st.ID,
		Day:         today,
		CheckedInAt: now.UTC(),
		Streak:      streak,
		Points:      CheckInPoints + bonus,
	}

	awards := []points.Entry{
		points.NewEntry(st.ID, CheckInPoints, points.SourceAttendance, rec.ID, fmt.Sprintf("%s 출석", today)),
	}
	if bonus > 0 {
		awards = append(awards, points.NewEntry(
			st.ID, bonus, points.SourceStreakBonus, rec.ID, fmt.Sprintf("%d일 연속 출석 보너스", streak),
		))
	}

	if err = svc.repo.CreateRecord(ctx, rec, awards); err != nil {
		if errors.Cause(err) == ErrAlreadyCheckedIn {
			return CheckInResult{}, ErrAlreadyCheckedIn
		}
		return CheckInResult{}, errors.Wrap(err, "creating attendance record")
	}
	svc.pointsSvc.Awarded(ctx, awards...)
	return CheckInResult{Record: rec, Bonus: bonus}, nil
}

func (svc *service) latest(ctx context.Context, studentID string) (*Record, error) {
	rec, err := svc.repo.LatestRecord(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting latest attendance record")
	}
	return &rec, nil
}

func (svc *service) Status(ctx context.Context, studentID string) (Status, error) {
	today := core.Today()
	yesterday, err := core.AddDays(today, -1)
	if err != nil {
		return Status{}, err
	}

	status := Status{Today: today}
	latest, err := svc.latest(ctx, studentID)
	if err != nil {
		return Status{}, err
	}
	if latest != nil {
		switch latest.Day {
		case today:
			checkedInAt := latest.CheckedInAt
			status.CheckedIn = true
			status.CheckedInAt = &checkedInAt
			status.Streak = latest.Streak
		case yesterday: // the streak is still alive until the end of today
			status.Streak = latest.Streak
		}
	}

	if status.TotalDays, err = svc.repo.CountRecords(ctx, studentID); err != nil {
		return Status{}, errors.Wrap(err, "counting attendance records")
	}

	status.NextMilestone, status.NextBonus = NextMilestone(status.Streak)
	return status, nil
}

func (svc *service) History(ctx context.Context, studentID, month string) ([]Record, error) {
	if month == "" {
		month = core.CurrentMonth()
	}
	first, last, err := core.MonthRange(month)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "month", Error: "must be a month formatted as YYYY-MM"})
	}
	recs, err := svc.repo.QueryRecords(ctx, studentID, first, last)
	return recs, errors.Wrap(err, "querying attendance records")
}

func (svc *service) Month(ctx context.Context, month string) ([]Record, error) {
	return svc.History(ctx, "", month)
}

func (svc *service) DailyReport(ctx context.Context, day string) ([]DailyEntry, error) {
	if day == "" {
		day = core.Today()
	}
	if _, err := core.AddDays(day, 0); err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "day", Error: "must be a day formatted as YYYY-MM-DD"})
	}
	entries, err := svc.repo.DailyReport(ctx, day)
	return entries, errors.Wrap(err, "building daily report")
}
