package qna

import (
	"time"

	"github.com/trezcool/blogclass/core"
)

type Question struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Answer     string     `json:"answer"`
	AnsweredBy string     `json:"answered_by"`
	CreatedAt  time.Time  `json:"created_at"`  // UTC
	AnsweredAt *time.Time `json:"answered_at"` // UTC
}

func (q *Question) Answered() bool {
	return q.AnsweredAt != nil
}

type NewQuestion struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
	Body  string `json:"body" validate:"required,notblank,max=10000"`
}

func (nq *NewQuestion) Clean() {
	nq.Title = core.CleanString(nq.Title)
	nq.Body = core.CleanString(nq.Body)
}

type AnswerInput struct {
	Answer string `json:"answer" validate:"required,notblank,max=10000"`
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Answered  *bool  `query:"answered"`
}
