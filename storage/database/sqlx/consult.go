package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/consult"
)

const slotColumns = "id, starts_at, duration_min, coach, status, student_id, topic, booked_at, created_at"

type slotRow struct {
	ID          string      `db:"id"`
	StartsAt    time.Time   `db:"starts_at"`
	DurationMin int         `db:"duration_min"`
	Coach       string      `db:"coach"`
	Status      string      `db:"status"`
	StudentID   null.String `db:"student_id"`
	Topic       string      `db:"topic"`
	BookedAt    null.Time   `db:"booked_at"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r slotRow) toSlot() consult.Slot {
	return consult.Slot{
		ID:          r.ID,
		StartsAt:    r.StartsAt.UTC(),
		DurationMin: r.DurationMin,
		Coach:       r.Coach,
		Status:      r.Status,
		StudentID:   r.StudentID.String,
		Topic:       r.Topic,
		BookedAt:    utcPtr(r.BookedAt),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type consultRepository struct {
	db core.DB
}

var _ consult.Repository = (*consultRepository)(nil)

func NewConsultRepository(db core.DB) consult.Repository {
	return &consultRepository{db: db}
}

func (repo *consultRepository) CreateSlots(ctx context.Context, slots []consult.Slot) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		for _, s := range slots {
			_, err := exec.ExecContext(ctx, exec.Rebind(`
				INSERT INTO consultation_slots (id, starts_at, duration_min, coach, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`),
				s.ID, s.StartsAt, s.DurationMin, s.Coach, s.Status, s.CreatedAt,
			)
			if err != nil {
				return errors.Wrap(err, "inserting slot")
			}
		}
		return nil
	})
}

func (repo *consultRepository) GetSlot(ctx context.Context, id string) (consult.Slot, error) {
	if !isUUID(id) {
		return consult.Slot{}, consult.ErrNotFound
	}
	var row slotRow
	if err := getOne(ctx, repo.db, &row, consult.ErrNotFound, "SELECT "+slotColumns+" FROM consultation_slots WHERE id = ?", id); err != nil {
		return consult.Slot{}, err
	}
	return row.toSlot(), nil
}

func (repo *consultRepository) QuerySlots(ctx context.Context, filter consult.QueryFilter) ([]consult.Slot, error) {
	var w whereClause
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.StudentID != "" {
		if !isUUID(filter.StudentID) {
			return []consult.Slot{}, nil
		}
		w.add("student_id = ?", filter.StudentID)
	}
	if !filter.From.IsZero() {
		w.add("starts_at > ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("starts_at < ?", filter.To)
	}

	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM consultation_slots" + w.String() + " ORDER BY starts_at ASC"
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, err
	}
	slots := make([]consult.Slot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.toSlot())
	}
	return slots, nil
}

const bookSlot = `
UPDATE consultation_slots SET status = 'booked', student_id = ?, topic = ?, booked_at = ?
WHERE id = ? AND status = 'open' AND student_id IS NULL AND starts_at > ?
	AND NOT EXISTS (
		SELECT 1 FROM consultation_slots
		WHERE student_id = ? AND status = 'booked' AND starts_at > ?
	)
RETURNING ` + slotColumns

func (repo *consultRepository) BookSlot(ctx context.Context, id, studentID, topic string, now time.Time) (consult.Slot, error) {
	if !isUUID(id) || !isUUID(studentID) {
		return consult.Slot{}, consult.ErrSlotUnavailable
	}
	return repo.updateSlot(ctx, consult.ErrSlotUnavailable, bookSlot, studentID, topic, now, id, now, studentID, now)
}

func (repo *consultRepository) ReleaseSlot(ctx context.Context, id, studentID string, now time.Time) (consult.Slot, error) {
	if !isUUID(id) || !isUUID(studentID) {
		return consult.Slot{}, consult.ErrSlotUnavailable
	}
	return repo.updateSlot(ctx, consult.ErrSlotUnavailable, `
		UPDATE consultation_slots SET status = 'open', student_id = NULL, topic = '', booked_at = NULL
		WHERE id = ? AND student_id = ? AND status = 'booked' AND starts_at > ?
		RETURNING `+slotColumns,
		id, studentID, now,
	)
}

func (repo *consultRepository) CancelSlot(ctx context.Context, id string) (consult.Slot, error) {
	if !isUUID(id) {
		return consult.Slot{}, consult.ErrNotFound
	}
	slot, err := repo.updateSlot(ctx, errNothingUpdated, `
		UPDATE consultation_slots SET status = 'cancelled'
		WHERE id = ? AND status <> 'cancelled'
		RETURNING `+slotColumns,
		id,
	)
	if errors.Cause(err) == errNothingUpdated {
		return repo.GetSlot(ctx, id)
	}
	return slot, err
}

var errNothingUpdated = errors.New("nothing updated")

// updateSlot runs an UPDATE ... RETURNING statement; noRows is returned when it matched no slot.
func (repo *consultRepository) updateSlot(ctx context.Context, noRows error, query string, args ...interface{}) (consult.Slot, error) {
	var row slotRow
	err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(query), args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return consult.Slot{}, noRows
		}
		return consult.Slot{}, errors.Wrap(err, "updating slot")
	}
	return row.toSlot(), nil
}
