package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/blogclass/core/consult"
)

type consultRepository struct {
	db *DB
}

var _ consult.Repository = (*consultRepository)(nil)

func NewConsultRepository(db *DB) consult.Repository {
	return &consultRepository{db: db}
}

func (repo *consultRepository) CreateSlots(_ context.Context, slots []consult.Slot) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i := range slots {
		s := slots[i]
		repo.db.slots[s.ID] = &s
	}
	return nil
}

func (repo *consultRepository) GetSlot(_ context.Context, id string) (consult.Slot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.slots[id]; ok {
		return *s, nil
	}
	return consult.Slot{}, consult.ErrNotFound
}

func (repo *consultRepository) QuerySlots(_ context.Context, filter consult.QueryFilter) ([]consult.Slot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	slots := make([]consult.Slot, 0)
	for _, s := range repo.db.slots {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		if !filter.From.IsZero() && !s.StartsAt.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !s.StartsAt.Before(filter.To) {
			continue
		}
		slots = append(slots, *s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })
	return slots, nil
}

func (repo *consultRepository) BookSlot(_ context.Context, id, studentID, topic string, now time.Time) (consult.Slot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.slots[id]
	if !ok || !s.Bookable(now) {
		return consult.Slot{}, consult.ErrSlotUnavailable
	}
	for _, other := range repo.db.slots {
		if other.StudentID == studentID && other.Upcoming(now) {
			return consult.Slot{}, consult.ErrSlotUnavailable
		}
	}

	bookedAt := now
	s.Status = consult.StatusBooked
	s.StudentID = studentID
	s.Topic = topic
	s.BookedAt = &bookedAt
	return *s, nil
}

func (repo *consultRepository) ReleaseSlot(_ context.Context, id, studentID string, now time.Time) (consult.Slot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.slots[id]
	if !ok || s.StudentID != studentID || !s.Upcoming(now) {
		return consult.Slot{}, consult.ErrSlotUnavailable
	}
	s.Status = consult.StatusOpen
	s.StudentID = ""
	s.Topic = ""
	s.BookedAt = nil
	return *s, nil
}

func (repo *consultRepository) CancelSlot(_ context.Context, id string) (consult.Slot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.slots[id]
	if !ok {
		return consult.Slot{}, consult.ErrNotFound
	}
	s.Status = consult.StatusCancelled
	return *s, nil
}
