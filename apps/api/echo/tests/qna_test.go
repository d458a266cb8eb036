package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/qna"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func Test_qnaApi(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	token := getToken(t, app, st)
	coachToken := getToken(t, app, coach)

	var q1, q2 qna.Question
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/questions", token, marchallObj(t, qna.NewQuestion{Title: "제목 짓기", Body: "어떻게 하나요?"}), &q1))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/questions", token, marchallObj(t, qna.NewQuestion{Title: "사진", Body: "몇 장이 좋나요?"}), &q2))

	runHttpTests(t, srv, []httpTest{
		{
			name: "blank", method: http.MethodPost, path: "/v1/questions", token: token,
			body: marchallObj(t, qna.NewQuestion{Title: " ", Body: "?"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required"}),
		},
		{name: "others cannot read", path: "/v1/questions/" + q1.ID, token: getToken(t, app, other), wantCode: http.StatusNotFound},
		{name: "others list nothing", path: "/v1/questions", token: getToken(t, app, other), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "Admin required", method: http.MethodPut, path: "/v1/admin/questions/" + q1.ID + "/answer", token: token, wantCode: http.StatusForbidden},
	})

	var unanswered []qna.Question
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/questions?answered=false", coachToken, nil, &unanswered))
	assert.Len(t, unanswered, 2)

	var answered qna.Question
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/admin/questions/"+q1.ID+"/answer", coachToken, marchallObj(t, qna.AnswerInput{Answer: "키워드를 앞에 두세요"}), &answered))
	assert.Equal(t, coach.Name, answered.AnsweredBy)
	assert.True(t, answered.Answered())

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "question_answered", sent[0].TemplateName)
	assert.Equal(t, st.Email, sent[0].To[0].Address)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/questions?answered=false", coachToken, nil, &unanswered))
	assert.Len(t, unanswered, 1)

	runHttpTests(t, srv, []httpTest{
		{
			name: "answered cannot be deleted", method: http.MethodDelete, path: "/v1/questions/" + q1.ID, token: token,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "answered questions cannot be deleted"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/questions/" + q2.ID, token: token, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/questions/" + q2.ID, token: token, wantCode: http.StatusNotFound},
	})
}
