package qna

import (
	"context"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("question not found")
	ErrAlreadyAnswered = core.NewConflictError("answered questions cannot be deleted")
)

type (
	Repository interface {
		CreateQuestion(ctx context.Context, q Question) error
		GetQuestion(ctx context.Context, id string) (Question, error)
		// QueryQuestions returns the matching questions, newest first.
		QueryQuestions(ctx context.Context, filter QueryFilter) ([]Question, error)
		CountQuestions(ctx context.Context, filter QueryFilter) (int, error)
		UpdateQuestion(ctx context.Context, q Question) error
		DeleteQuestion(ctx context.Context, id string) error
	}

	Service interface {
		Ask(ctx context.Context, st student.Student, nq NewQuestion) (Question, error)
		Get(ctx context.Context, actor student.Student, id string) (Question, error)
		Query(ctx context.Context, filter QueryFilter) ([]Question, error)
		Count(ctx context.Context, filter QueryFilter) (int, error)
		Answer(ctx context.Context, coach student.Student, id string, in AnswerInput) (Question, error)
		Delete(ctx context.Context, actor student.Student, id string) error
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

func (svc *service) Ask(ctx context.Context, st student.Student, nq NewQuestion) (Question, error) {
	q := Question{
		ID:        uuid.NewString(),
		StudentID: st.ID,
		Title:     nq.Title,
		Body:      nq.Body,
		CreatedAt: core.Now(),
	}
	if err := svc.repo.CreateQuestion(ctx, q); err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

// Get returns the question if actor asked it or is an admin.
func (svc *service) Get(ctx context.Context, actor student.Student, id string) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.StudentID != actor.ID && !actor.IsAdmin() {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Question, error) {
	questions, err := svc.repo.QueryQuestions(ctx, filter)
	return questions, errors.Wrap(err, "querying questions")
}

func (svc *service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	n, err := svc.repo.CountQuestions(ctx, filter)
	return n, errors.Wrap(err, "counting questions")
}

// Answer sets (or edits) the answer to a question and lets its author know.
func (svc *service) Answer(ctx context.Context, coach student.Student, id string, in AnswerInput) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	now := core.Now()
	q.Answer = core.CleanString(in.Answer)
	q.AnsweredBy = coach.Name
	q.AnsweredAt = &now
	if err = svc.repo.UpdateQuestion(ctx, q); err != nil {
		return Question{}, errors.Wrap(err, "updating question")
	}

	if author, err := svc.studentSvc.GetByID(ctx, q.StudentID); err == nil && author.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: author.Name, Address: author.Email}},
			Subject:      "질문에 답변이 등록되었습니다",
			TemplateName: "question_answered",
			TemplateData: map[string]interface{}{
				"Name":   author.Name,
				"Title":  q.Title,
				"Answer": q.Answer,
			},
		})
	}
	return q, nil
}

// Delete lets authors delete their unanswered questions. Admins may delete any question.
func (svc *service) Delete(ctx context.Context, actor student.Student, id string) error {
	q, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && q.Answered() {
		return ErrAlreadyAnswered
	}
	return svc.repo.DeleteQuestion(ctx, q.ID)
}
