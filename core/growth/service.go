package growth

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("post not found")
	ErrPostExists = core.NewConflictError("this post was already submitted")
)

type (
	Repository interface {
		// CreatePost saves p, increments the author's post count and saves award, atomically.
		// It returns ErrPostExists if the author already submitted p.URL.
		CreatePost(ctx context.Context, p Post, award points.Entry) error
		GetPost(ctx context.Context, id string) (Post, error)
		// QueryPosts returns the matching posts, newest first.
		QueryPosts(ctx context.Context, filter QueryFilter) ([]Post, error)
		// DeletePost deletes p and decrements the author's post count, atomically.
		DeletePost(ctx context.Context, p Post) error
		CountPosts(ctx context.Context) (int, error)
	}

	Service interface {
		Submit(ctx context.Context, st student.Student, np NewPost) (Post, error)
		Get(ctx context.Context, actor student.Student, id string) (Post, error)
		Query(ctx context.Context, filter QueryFilter) ([]Post, error)
		Delete(ctx context.Context, actor student.Student, id string) error
		Count(ctx context.Context) (int, error)
		Tree(st student.Student) Tree
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

func (svc *service) Submit(ctx context.Context, st student.Student, np NewPost) (Post, error) {
	p := Post{
		ID:        uuid.NewString(),
		StudentID: st.ID,
		URL:       np.URL,
		Title:     np.Title,
		CreatedAt: core.Now(),
	}
	// keyed on the url: a deleted then resubmitted post is not rewarded again
	award := points.NewEntry(st.ID, PostPoints, points.SourcePost, p.URL, "블로그 포스팅: "+p.Title)
	if err := svc.repo.CreatePost(ctx, p, award); err != nil {
		if errors.Cause(err) == ErrPostExists {
			return Post{}, ErrPostExists
		}
		return Post{}, errors.Wrap(err, "creating post")
	}
	svc.pointsSvc.Awarded(ctx, award)
	return p, nil
}

// Get returns the post if actor is its author or an admin.
func (svc *service) Get(ctx context.Context, actor student.Student, id string) (Post, error) {
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if p.StudentID != actor.ID && !actor.IsAdmin() {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Post, error) {
	posts, err := svc.repo.QueryPosts(ctx, filter)
	return posts, errors.Wrap(err, "querying posts")
}

// Delete deletes a post of actor (any post if actor is an admin). Points are kept.
func (svc *service) Delete(ctx context.Context, actor student.Student, id string) error {
	p, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeletePost(ctx, p), "deleting post")
}

func (svc *service) Count(ctx context.Context) (int, error) {
	n, err := svc.repo.CountPosts(ctx)
	return n, errors.Wrap(err, "counting posts")
}

func (svc *service) Tree(st student.Student) Tree {
	return NewTree(st.PostCount, st.Points)
}
