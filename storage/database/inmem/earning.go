package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core/earning"
	"github.com/trezcool/blogclass/core/student"
)

type earningRepository struct {
	db *DB
}

var _ earning.Repository = (*earningRepository)(nil)

func NewEarningRepository(db *DB) earning.Repository {
	return &earningRepository{db: db}
}

func (repo *earningRepository) CreateEarning(_ context.Context, e earning.Earning) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[e.StudentID]; !ok {
		return student.ErrNotFound
	}
	repo.db.earnings[e.ID] = &e
	return nil
}

func (repo *earningRepository) GetEarning(_ context.Context, id string) (earning.Earning, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.earnings[id]; ok {
		return *e, nil
	}
	return earning.Earning{}, earning.ErrNotFound
}

func (repo *earningRepository) QueryEarnings(_ context.Context, studentID string) ([]earning.Earning, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	earnings := make([]earning.Earning, 0)
	for _, e := range repo.db.earnings {
		if e.StudentID == studentID {
			earnings = append(earnings, *e)
		}
	}
	sort.Slice(earnings, func(i, j int) bool {
		if earnings[i].Month != earnings[j].Month {
			return earnings[i].Month > earnings[j].Month
		}
		return earnings[i].CreatedAt.After(earnings[j].CreatedAt)
	})
	return earnings, nil
}

func (repo *earningRepository) DeleteEarning(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.earnings[id]; !ok {
		return earning.ErrNotFound
	}
	delete(repo.db.earnings, id)
	return nil
}

func (repo *earningRepository) Summarize(_ context.Context, month string) ([]earning.SummaryRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byStudent := make(map[string]*earning.SummaryRow)
	for _, e := range repo.db.earnings {
		if month != "" && e.Month != month {
			continue
		}
		row, ok := byStudent[e.StudentID]
		if !ok {
			st, ok := repo.db.students[e.StudentID]
			if !ok {
				continue
			}
			row = &earning.SummaryRow{StudentID: st.ID, Name: st.Name, Cohort: st.Cohort}
			byStudent[e.StudentID] = row
		}
		row.Count++
		row.Total += e.Amount
	}

	summary := make([]earning.SummaryRow, 0, len(byStudent))
	for _, row := range byStudent {
		summary = append(summary, *row)
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Total != summary[j].Total {
			return summary[i].Total > summary[j].Total
		}
		return summary[i].Name < summary[j].Name
	})
	return summary, nil
}
