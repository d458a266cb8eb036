package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func Test_attendanceApi_checkIn(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	token := getToken(t, app, st)
	coachToken := getToken(t, app, coach)
	start := time.Now()

	runHttpTests(t, srv, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/attendance/check-in", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students only", method: http.MethodPost, path: "/v1/attendance/check-in", token: coachToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	// check in 3 days in a row
	for i, want := range []struct{ streak, bonus int }{{1, 0}, {2, 0}, {3, 20}} {
		testutil.FreezeTime(t, start.Add(time.Duration(i)*24*time.Hour))

		var res attendance.CheckInResult
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/attendance/check-in", token, nil, &res))
		assert.Equal(t, want.streak, res.Record.Streak)
		assert.Equal(t, want.bonus, res.Bonus)
		assert.Equal(t, attendance.CheckInPoints+want.bonus, res.Record.Points)
	}

	runHttpTests(t, srv, []httpTest{
		{
			name: "twice a day", method: http.MethodPost, path: "/v1/attendance/check-in", token: token,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already checked in today"}),
		},
		{name: "bad month", path: "/v1/attendance/history?month=2024-13", token: token, wantCode: http.StatusBadRequest},
		{name: "report requires admin", path: "/v1/admin/attendance/daily", token: token, wantCode: http.StatusForbidden},
	})

	var status attendance.Status
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/attendance/status", token, nil, &status))
	assert.True(t, status.CheckedIn)
	assert.Equal(t, 3, status.Streak)
	assert.Equal(t, 3, status.TotalDays)
	assert.Equal(t, 7, status.NextMilestone)
	assert.Equal(t, 50, status.NextBonus)

	var history []attendance.Record
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/attendance/history", token, nil, &history))
	assert.NotEmpty(t, history)

	var entries []points.Entry
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/points/history", token, nil, &entries))
	assert.Len(t, entries, 4)

	var me student.Student
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me", token, nil, &me))
	assert.Equal(t, 50, me.Points)

	var report []attendance.DailyEntry
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/attendance/daily", coachToken, nil, &report))
	require.Len(t, report, 1) // coaches are not listed
	assert.Equal(t, st.ID, report[0].StudentID)
	assert.True(t, report[0].CheckedIn)
	assert.Equal(t, 3, report[0].Streak)
}

func Test_growthApi(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	token := getToken(t, app, st)

	post := growth.NewPost{URL: "https://blog.naver.com/blogger/1", Title: "첫 포스팅"}
	var created growth.Post
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/posts", token, marchallObj(t, post), &created))
	assert.Equal(t, st.ID, created.StudentID)

	runHttpTests(t, srv, []httpTest{
		{name: "Auth required", path: "/v1/posts", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "duplicate", method: http.MethodPost, path: "/v1/posts", token: token, body: marchallObj(t, post),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "this post was already submitted"}),
		},
		{
			name: "invalid url", method: http.MethodPost, path: "/v1/posts", token: token,
			body: marchallObj(t, growth.NewPost{URL: "blog", Title: "제목"}), wantCode: http.StatusBadRequest,
		},
		{name: "list", path: "/v1/posts", token: token, wantCode: http.StatusOK, wantData: marchallList(t, created)},
		{name: "others see nothing", path: "/v1/posts", token: getToken(t, app, other), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "others cannot read", path: "/v1/posts/" + created.ID, token: getToken(t, app, other), wantCode: http.StatusNotFound},
		{name: "admins can read", path: "/v1/posts/" + created.ID, token: getToken(t, app, coach), wantCode: http.StatusOK, wantData: marchallObj(t, created)},
		{
			name: "tree", path: "/v1/tree", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, growth.NewTree(1, growth.PostPoints)),
		},
	})

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/v1/posts/"+created.ID, token, nil, nil))

	// points are kept
	var tree growth.Tree
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/tree", token, nil, &tree))
	assert.Equal(t, 0, tree.PostCount)
	assert.Equal(t, growth.PostPoints, tree.Points)
}

func Test_pointsApi(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	token := getToken(t, app, st)
	coachToken := getToken(t, app, coach)

	var board []points.Standing
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/points/leaderboard", token, nil, &board))
	require.Len(t, board, 2) // coaches are not ranked
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 1, board[1].Rank)

	runHttpTests(t, srv, []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/admin/students/" + st.ID + "/points", token: token,
			body: marchallObj(t, points.Grant{Amount: 100, Reason: "cheat"}), wantCode: http.StatusForbidden,
		},
		{
			name: "zero amount", method: http.MethodPost, path: "/v1/admin/students/" + st.ID + "/points", token: coachToken,
			body: marchallObj(t, points.Grant{Amount: 0, Reason: "nothing"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/admin/students/" + coach.ID + "x/points", token: coachToken,
			body: marchallObj(t, points.Grant{Amount: 10, Reason: "ghost"}), wantCode: http.StatusNotFound,
		},
	})

	var entry points.Entry
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/students/"+other.ID+"/points", coachToken, marchallObj(t, points.Grant{Amount: 15, Reason: " 우수 후기 "}), &entry))
	assert.Equal(t, points.SourceManual, entry.Source)
	assert.Equal(t, "우수 후기", entry.Reason)

	// the cached leaderboard was invalidated
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/points/leaderboard?limit=1", token, nil, &board))
	require.Len(t, board, 1)
	assert.Equal(t, other.ID, board[0].StudentID)
	assert.Equal(t, 15, board[0].Points)

	var entries []points.Entry
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/admin/students/"+other.ID+"/points", coachToken, nil, &entries))
	assert.Len(t, entries, 1)
}
