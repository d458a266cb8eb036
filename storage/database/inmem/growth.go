package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
)

type growthRepository struct {
	db *DB
}

var _ growth.Repository = (*growthRepository)(nil)

func NewGrowthRepository(db *DB) growth.Repository {
	return &growthRepository{db: db}
}

func (repo *growthRepository) CreatePost(_ context.Context, p growth.Post, award points.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, post := range repo.db.posts {
		if post.StudentID == p.StudentID && post.URL == p.URL {
			return growth.ErrPostExists
		}
	}
	st, ok := repo.db.students[p.StudentID]
	if !ok {
		return points.ErrStudentNotFound
	}
	if err := repo.db.checkEntries([]points.Entry{award}); err != nil {
		return err
	}
	repo.db.posts[p.ID] = &p
	st.PostCount++
	repo.db.addEntries([]points.Entry{award})
	return nil
}

func (repo *growthRepository) GetPost(_ context.Context, id string) (growth.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		return *p, nil
	}
	return growth.Post{}, growth.ErrNotFound
}

func (repo *growthRepository) QueryPosts(_ context.Context, filter growth.QueryFilter) ([]growth.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]growth.Post, 0)
	for _, p := range repo.db.posts {
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			continue
		}
		if filter.Cohort > 0 {
			if st, ok := repo.db.students[p.StudentID]; !ok || st.Cohort != filter.Cohort {
				continue
			}
		}
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (repo *growthRepository) DeletePost(_ context.Context, p growth.Post) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[p.ID]; !ok {
		return growth.ErrNotFound
	}
	delete(repo.db.posts, p.ID)
	if st, ok := repo.db.students[p.StudentID]; ok && st.PostCount > 0 {
		st.PostCount--
	}
	return nil
}

func (repo *growthRepository) CountPosts(context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.posts), nil
}
