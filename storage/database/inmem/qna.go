package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
)

type qnaRepository struct {
	db *DB
}

var _ qna.Repository = (*qnaRepository)(nil)

func NewQnARepository(db *DB) qna.Repository {
	return &qnaRepository{db: db}
}

func (repo *qnaRepository) CreateQuestion(_ context.Context, q qna.Question) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[q.StudentID]; !ok {
		return student.ErrNotFound
	}
	repo.db.questions[q.ID] = &q
	return nil
}

func (repo *qnaRepository) GetQuestion(_ context.Context, id string) (qna.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return *q, nil
	}
	return qna.Question{}, qna.ErrNotFound
}

func (repo *qnaRepository) query(filter qna.QueryFilter) []qna.Question {
	questions := make([]qna.Question, 0)
	for _, q := range repo.db.questions {
		if filter.StudentID != "" && q.StudentID != filter.StudentID {
			continue
		}
		if filter.Answered != nil && q.Answered() != *filter.Answered {
			continue
		}
		questions = append(questions, *q)
	}
	return questions
}

func (repo *qnaRepository) QueryQuestions(_ context.Context, filter qna.QueryFilter) ([]qna.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := repo.query(filter)
	sort.Slice(questions, func(i, j int) bool { return questions[i].CreatedAt.After(questions[j].CreatedAt) })
	return questions, nil
}

func (repo *qnaRepository) CountQuestions(_ context.Context, filter qna.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *qnaRepository) UpdateQuestion(_ context.Context, q qna.Question) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return qna.ErrNotFound
	}
	repo.db.questions[q.ID] = &q
	return nil
}

func (repo *qnaRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return qna.ErrNotFound
	}
	delete(repo.db.questions, id)
	return nil
}
