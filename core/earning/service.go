package earning

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

var ErrNotFound = core.NewNotFoundError("earning not found")

type (
	Repository interface {
		CreateEarning(ctx context.Context, e Earning) error
		GetEarning(ctx context.Context, id string) (Earning, error)
		// QueryEarnings returns the earnings of a student, newest month first.
		QueryEarnings(ctx context.Context, studentID string) ([]Earning, error)
		DeleteEarning(ctx context.Context, id string) error
		// Summarize totals earnings per student, highest total first. An empty month selects every month.
		Summarize(ctx context.Context, month string) ([]SummaryRow, error)
	}

	Service interface {
		Record(ctx context.Context, st student.Student, ne NewEarning) (Earning, error)
		Ledger(ctx context.Context, studentID string) (Ledger, error)
		Delete(ctx context.Context, actor student.Student, id string) error
		Summary(ctx context.Context, month string) ([]SummaryRow, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Record(ctx context.Context, st student.Student, ne NewEarning) (Earning, error) {
	e := Earning{
		ID:        uuid.NewString(),
		StudentID: st.ID,
		Month:     ne.Month,
		Source:    ne.Source,
		Amount:    ne.Amount,
		Memo:      ne.Memo,
		CreatedAt: core.Now(),
	}
	if err := svc.repo.CreateEarning(ctx, e); err != nil {
		return Earning{}, errors.Wrap(err, "creating earning")
	}
	return e, nil
}

func (svc *service) Ledger(ctx context.Context, studentID string) (Ledger, error) {
	earnings, err := svc.repo.QueryEarnings(ctx, studentID)
	if err != nil {
		return Ledger{}, errors.Wrap(err, "querying earnings")
	}
	return NewLedger(earnings), nil
}

// Delete deletes an earning of actor (any earning if actor is an admin).
func (svc *service) Delete(ctx context.Context, actor student.Student, id string) error {
	e, err := svc.repo.GetEarning(ctx, id)
	if err != nil {
		return err
	}
	if e.StudentID != actor.ID && !actor.IsAdmin() {
		return ErrNotFound
	}
	return svc.repo.DeleteEarning(ctx, e.ID)
}

func (svc *service) Summary(ctx context.Context, month string) ([]SummaryRow, error) {
	if month != "" {
		if _, _, err := core.MonthRange(month); err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "month", Error: "must be a month formatted as YYYY-MM"})
		}
	}
	rows, err := svc.repo.Summarize(ctx, month)
	return rows, errors.Wrap(err, "summarizing earnings")
}
