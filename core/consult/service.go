package consult

import (
	"context"
	"net/mail"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("slot not found")
	ErrSlotUnavailable = core.NewConflictError("slot is no longer available")
	ErrAlreadyBooked   = core.NewConflictError("you already have an upcoming consultation")
	ErrTooLateToCancel = core.NewConflictError("consultations can only be cancelled before they start")
	ErrPastSlot        = errors.New("slots must start in the future")
)

type (
	Repository interface {
		CreateSlots(ctx context.Context, slots []Slot) error
		GetSlot(ctx context.Context, id string) (Slot, error)
		// QuerySlots returns the matching slots by StartsAt.
		QuerySlots(ctx context.Context, filter QueryFilter) ([]Slot, error)
		// BookSlot assigns the slot to studentID if, at now, it is still open & unassigned, it
		// has not started and the student has no upcoming booking. The first update wins: if
		// nothing was updated, it returns ErrSlotUnavailable.
		BookSlot(ctx context.Context, id, studentID, topic string, now time.Time) (Slot, error)
		// ReleaseSlot re-opens a slot booked by studentID that has not started at now.
		// If nothing was updated, it returns ErrSlotUnavailable.
		ReleaseSlot(ctx context.Context, id, studentID string, now time.Time) (Slot, error)
		// CancelSlot marks the slot cancelled, unless it already is.
		CancelSlot(ctx context.Context, id string) (Slot, error)
	}

	Service interface {
		CreateSlots(ctx context.Context, ns NewSlots) ([]Slot, error)
		CancelSlot(ctx context.Context, id string) (Slot, error)
		Query(ctx context.Context, filter QueryFilter) ([]Slot, error)
		ListOpen(ctx context.Context) ([]Slot, error)
		ListMine(ctx context.Context, studentID string) ([]Slot, error)
		Upcoming(ctx context.Context, studentID string) (*Slot, error)
		Book(ctx context.Context, st student.Student, id string, in BookInput) (Slot, error)
		CancelBooking(ctx context.Context, st student.Student, id string) (Slot, error)
	}

	service struct {
		repo       Repository
		studentSvc student.Service
		mailSvc    core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, studentSvc student.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, studentSvc: studentSvc, mailSvc: mailSvc}
}

func (svc *service) CreateSlots(ctx context.Context, ns NewSlots) ([]Slot, error) {
	now := core.Now()
	slots := make([]Slot, 0, len(ns.StartsAt))
	for i, startsAt := range ns.StartsAt {
		if !startsAt.After(now) {
			return nil, core.NewValidationError(ErrPastSlot, core.FieldError{
				Field: "starts_at", Error: ErrPastSlot.Error() + " (#" + strconv.Itoa(i+1) + ")",
			})
		}
		slots = append(slots, Slot{
			ID:          uuid.NewString(),
			StartsAt:    startsAt,
			DurationMin: ns.DurationMin,
			Coach:       ns.Coach,
			Status:      StatusOpen,
			CreatedAt:   now,
		})
	}
	if err := svc.repo.CreateSlots(ctx, slots); err != nil {
		return nil, errors.Wrap(err, "creating slots")
	}
	return slots, nil
}

// CancelSlot cancels a slot; the student who booked it is notified.
func (svc *service) CancelSlot(ctx context.Context, id string) (Slot, error) {
	before, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	slot, err := svc.repo.CancelSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if before.Upcoming(core.Now()) {
		svc.notify(ctx, before.StudentID, before, "slot_cancelled", "상담이 취소되었습니다")
	}
	return slot, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Slot, error) {
	slots, err := svc.repo.QuerySlots(ctx, filter)
	return slots, errors.Wrap(err, "querying slots")
}

func (svc *service) ListOpen(ctx context.Context) ([]Slot, error) {
	return svc.Query(ctx, QueryFilter{Status: StatusOpen, From: core.Now()})
}

func (svc *service) ListMine(ctx context.Context, studentID string) ([]Slot, error) {
	return svc.Query(ctx, QueryFilter{StudentID: studentID})
}

// Upcoming returns the next booked consultation of a student, if any.
func (svc *service) Upcoming(ctx context.Context, studentID string) (*Slot, error) {
	slots, err := svc.Query(ctx, QueryFilter{Status: StatusBooked, StudentID: studentID, From: core.Now()})
	if err != nil || len(slots) == 0 {
		return nil, err
	}
	return &slots[0], nil
}

func (svc *service) Book(ctx context.Context, st student.Student, id string, in BookInput) (Slot, error) {
	now := core.Now()
	slot, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if !slot.Bookable(now) {
		return Slot{}, ErrSlotUnavailable
	}
	if upcoming, err := svc.Upcoming(ctx, st.ID); err != nil {
		return Slot{}, err
	} else if upcoming != nil {
		return Slot{}, ErrAlreadyBooked
	}

	// the conditional update decides between concurrent bookings
	slot, err = svc.repo.BookSlot(ctx, id, st.ID, in.Topic, now)
	if err != nil {
		if errors.Cause(err) == ErrSlotUnavailable {
			return Slot{}, ErrSlotUnavailable
		}
		return Slot{}, errors.Wrap(err, "booking slot")
	}
	svc.notify(ctx, st.ID, slot, "booking_confirmed", "상담 예약이 확정되었습니다")
	return slot, nil
}

func (svc *service) CancelBooking(ctx context.Context, st student.Student, id string) (Slot, error) {
	slot, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if slot.StudentID != st.ID || slot.Status != StatusBooked {
		return Slot{}, ErrNotFound
	}
	now := core.Now()
	if !slot.StartsAt.After(now) {
		return Slot{}, ErrTooLateToCancel
	}

	slot, err = svc.repo.ReleaseSlot(ctx, id, st.ID, now)
	if err != nil {
		if errors.Cause(err) == ErrSlotUnavailable {
			return Slot{}, ErrNotFound
		}
		return Slot{}, errors.Wrap(err, "releasing slot")
	}
	return slot, nil
}

func (svc *service) notify(ctx context.Context, studentID string, slot Slot, tmpl, subject string) {
	st, err := svc.studentSvc.GetByID(ctx, studentID)
	if err != nil || st.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: map[string]interface{}{
			"Name":        st.Name,
			"StartsAt":    slot.StartsAt.In(core.KST).Format("2006-01-02 15:04"),
			"DurationMin": slot.DurationMin,
			"Coach":       slot.Coach,
			"Topic":       slot.Topic,
		},
	})
}
