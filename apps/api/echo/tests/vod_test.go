package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
)

func Test_vodApi(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	token := getToken(t, app, st)
	coachToken := getToken(t, app, coach)

	published := time.Now().Add(-time.Hour).UTC()
	lecture := vod.LectureInput{Week: 1, Title: "블로그 시작하기", VideoURL: "https://vod.test.kr/1", DurationSec: 600, PublishedAt: &published}
	draft := vod.LectureInput{Week: 2, Title: "키워드 찾기", VideoURL: "https://vod.test.kr/2", DurationSec: 900}

	runHttpTests(t, srv, []httpTest{
		{name: "Admin required", method: http.MethodPost, path: "/v1/admin/lectures", token: token, body: marchallObj(t, lecture), wantCode: http.StatusForbidden},
		{
			name: "invalid lecture", method: http.MethodPost, path: "/v1/admin/lectures", token: coachToken,
			body: marchallObj(t, vod.LectureInput{Week: 0, Title: " ", VideoURL: "video"}), wantCode: http.StatusBadRequest,
		},
	})

	var l1, l2 vod.Lecture
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/lectures", coachToken, marchallObj(t, lecture), &l1))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/lectures", coachToken, marchallObj(t, draft), &l2))

	var views []vod.LectureView
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/lectures", token, nil, &views))
	require.Len(t, views, 1) // drafts are hidden from students
	assert.Equal(t, l1.ID, views[0].ID)
	assert.Nil(t, views[0].Progress)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/lectures", coachToken, nil, &views))
	assert.Len(t, views, 2)

	runHttpTests(t, srv, []httpTest{
		{name: "draft", path: "/v1/lectures/" + l2.ID, token: token, wantCode: http.StatusNotFound},
		{
			name: "progress on draft", method: http.MethodPut, path: "/v1/lectures/" + l2.ID + "/progress", token: token,
			body: marchallObj(t, vod.ProgressInput{WatchedSec: 10}), wantCode: http.StatusNotFound,
		},
	})

	t.Run("progress", func(t *testing.T) {
		var p vod.Progress
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/lectures/"+l1.ID+"/progress", token, marchallObj(t, vod.ProgressInput{WatchedSec: 120}), &p))
		assert.Equal(t, 120, p.WatchedSec)
		assert.False(t, p.Completed)

		// never goes backwards
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/lectures/"+l1.ID+"/progress", token, marchallObj(t, vod.ProgressInput{WatchedSec: 60}), &p))
		assert.Equal(t, 120, p.WatchedSec)

		for i := 0; i < 2; i++ { // completion is rewarded once
			require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/lectures/"+l1.ID+"/progress", token, marchallObj(t, vod.ProgressInput{WatchedSec: 9999}), &p))
			assert.Equal(t, 600, p.WatchedSec)
			assert.True(t, p.Completed)
		}

		var me student.Student
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me", token, nil, &me))
		assert.Equal(t, vod.LecturePoints, me.Points)

		var view vod.LectureView
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/lectures/"+l1.ID, token, nil, &view))
		require.NotNil(t, view.Progress)
		assert.True(t, view.Progress.Completed)
	})

	t.Run("assignments", func(t *testing.T) {
		past := time.Now().Add(-time.Minute).UTC()
		var open, closed vod.Assignment
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/lectures/"+l1.ID+"/assignments", coachToken, marchallObj(t, vod.AssignmentInput{Title: "첫 글 쓰기"}), &open))
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/lectures/"+l1.ID+"/assignments", coachToken, marchallObj(t, vod.AssignmentInput{Title: "마감", DueAt: &past}), &closed))

		var assignments []vod.Assignment
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/lectures/"+l1.ID+"/assignments", token, nil, &assignments))
		assert.Len(t, assignments, 2)

		submission := vod.SubmissionInput{URL: "https://blog.naver.com/blogger/2", Memo: "확인 부탁드립니다"}
		runHttpTests(t, srv, []httpTest{
			{
				name: "past due", method: http.MethodPost, path: "/v1/assignments/" + closed.ID + "/submission", token: token,
				body: marchallObj(t, submission), wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: vod.ErrPastDue.Error()}),
			},
			{
				name: "unknown", method: http.MethodPost, path: "/v1/assignments/nope/submission", token: token,
				body: marchallObj(t, submission), wantCode: http.StatusNotFound,
			},
		})

		var s vod.Submission
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/assignments/"+open.ID+"/submission", token, marchallObj(t, submission), &s))
		submission.URL = "https://blog.naver.com/blogger/3"
		var resubmitted vod.Submission
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/assignments/"+open.ID+"/submission", token, marchallObj(t, submission), &resubmitted))
		assert.Equal(t, s.ID, resubmitted.ID)
		assert.Equal(t, submission.URL, resubmitted.URL)

		var me student.Student
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me", token, nil, &me))
		assert.Equal(t, vod.LecturePoints+vod.SubmissionPoints, me.Points)

		var subs []vod.Submission
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/submissions?reviewed=false", coachToken, nil, &subs))
		require.Len(t, subs, 1)

		var reviewed vod.Submission
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/v1/admin/submissions/"+s.ID+"/feedback", coachToken, marchallObj(t, vod.FeedbackInput{Feedback: "좋아요"}), &reviewed))
		assert.Equal(t, "좋아요", reviewed.Feedback)
		assert.NotNil(t, reviewed.ReviewedAt)

		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/submissions?reviewed=false", coachToken, nil, &subs))
		assert.Len(t, subs, 0)
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/submissions", token, nil, &subs))
		assert.Len(t, subs, 1)
	})

	t.Run("delete lecture", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/v1/admin/lectures/"+l1.ID, coachToken, nil, nil))
		assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/v1/lectures/"+l1.ID, token, nil, nil))

		// points are kept
		var me student.Student
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me", token, nil, &me))
		assert.Equal(t, vod.LecturePoints+vod.SubmissionPoints, me.Points)
	})
}
