package qna_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func TestService(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", "", []string{student.RoleStudent}, true)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", "", []string{student.RoleStudent}, true)
	coach := testutil.CreateStudent(t, app.StudentRepo, "코치", "coach", "coach@test.kr", "", []string{student.RoleAdminCoach}, true)

	q1, err := app.QnASvc.Ask(ctx, st, qna.NewQuestion{Title: "키워드", Body: "어떻게 고르나요?"})
	require.NoError(t, err)
	testutil.FreezeTime(t, time.Now().Add(time.Minute))
	q2, err := app.QnASvc.Ask(ctx, st, qna.NewQuestion{Title: "사진", Body: "몇 장이 좋나요?"})
	require.NoError(t, err)

	_, err = app.QnASvc.Get(ctx, other, q1.ID)
	assert.Equal(t, qna.ErrNotFound, err)
	got, err := app.QnASvc.Get(ctx, coach, q1.ID)
	require.NoError(t, err)
	assert.False(t, got.Answered())

	answered, err := app.QnASvc.Answer(ctx, coach, q1.ID, qna.AnswerInput{Answer: " 검색량을 보세요 "})
	require.NoError(t, err)
	assert.True(t, answered.Answered())
	assert.Equal(t, "검색량을 보세요", answered.Answer)
	assert.Equal(t, coach.Name, answered.AnsweredBy)

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "question_answered", sent[0].TemplateName)
	assert.Equal(t, st.Email, sent[0].To[0].Address)

	n, err := app.QnASvc.Count(ctx, qna.QueryFilter{Answered: core.BoolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	questions, err := app.QnASvc.Query(ctx, qna.QueryFilter{StudentID: st.ID})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, q2.ID, questions[0].ID) // newest first

	// answered questions are kept, unless an admin deletes them
	assert.Equal(t, qna.ErrAlreadyAnswered, app.QnASvc.Delete(ctx, st, q1.ID))
	assert.Equal(t, qna.ErrNotFound, app.QnASvc.Delete(ctx, other, q2.ID))
	require.NoError(t, app.QnASvc.Delete(ctx, st, q2.ID))
	require.NoError(t, app.QnASvc.Delete(ctx, coach, q1.ID))

	n, err = app.QnASvc.Count(ctx, qna.QueryFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
