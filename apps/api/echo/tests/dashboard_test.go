package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/dashboard"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/qna"
)

func Test_dashboardApi_home(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	token := getToken(t, app, st)

	runHttpTests(t, srv, []httpTest{
		{name: "Auth required", path: "/v1/me/home", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	})

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/attendance/check-in", token, nil, nil))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/posts", token, marchallObj(t, growth.NewPost{URL: "https://blog.test.kr/1", Title: "글"}), nil))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/questions", token, marchallObj(t, qna.NewQuestion{Title: "질문", Body: "내용"}), nil))

	var home dashboard.Home
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me/home", token, nil, &home))
	assert.Equal(t, st.ID, home.Student.ID)
	assert.Equal(t, 20, home.Student.Points)
	assert.Equal(t, 1, home.Tree.PostCount)
	assert.True(t, home.Attendance.CheckedIn)
	require.NotNil(t, home.Standing)
	assert.Equal(t, 1, home.Standing.Rank)
	assert.Equal(t, 1, home.OpenQuestions)
	assert.Nil(t, home.UpcomingConsultation)

	// admins are not ranked
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/v1/me/home", getToken(t, app, coach), nil, &home))
	assert.Nil(t, home.Standing)
}

func Test_dashboardApi_overview(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	token := getToken(t, app, st)
	coachToken := getToken(t, app, coach)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/attendance/check-in", token, nil, nil))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/questions", token, marchallObj(t, qna.NewQuestion{Title: "질문", Body: "내용"}), nil))

	var slots []consult.Slot
	newSlots := consult.NewSlots{Coach: "김코치", DurationMin: 30, StartsAt: []time.Time{time.Now().Add(time.Hour)}}
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/admin/consultations/slots", coachToken, marchallObj(t, newSlots), &slots))
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/v1/consultations/slots/"+slots[0].ID+"/book", token, marchallObj(t, consult.BookInput{Topic: "상담"}), nil))

	runHttpTests(t, srv, []httpTest{
		{name: "Admin required", path: "/v1/admin/overview", token: token, wantCode: http.StatusForbidden},
		{
			name: "overview", path: "/v1/admin/overview", token: coachToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard.Overview{
				Day:                 core.Today(),
				Students:            1,
				CheckedInToday:      1,
				UnansweredQuestions: 1,
				UpcomingBookings:    1,
			}),
		},
	})
}

func Test_dashboardApi_export(t *testing.T) {
	srv, app := setup(t)
	st, coach := createStudents(t, app)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/v1/attendance/check-in", getToken(t, app, st), nil, nil))

	runHttpTests(t, srv, []httpTest{
		{name: "bad month", path: "/v1/admin/export?month=2024-1", token: getToken(t, app, coach), wantCode: http.StatusBadRequest},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/export", getToken(t, app, coach))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-"+core.CurrentMonth()+".xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("출석부")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + the student
	assert.Equal(t, []string{"1", "1", st.Name, st.Email}, rows[1][:4])

	day, err := strconv.Atoi(core.Today()[8:])
	require.NoError(t, err)
	assert.Equal(t, "O", rows[1][3+day])
}

func Test_dashboardApi_importStudents(t *testing.T) {
	srv, app := setup(t)
	_, coach := createStudents(t, app)

	workbook := func(rows [][]interface{}) []byte {
		f := excelize.NewFile()
		defer f.Close()
		for i, row := range rows {
			row := row
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(f.GetSheetName(0), cell, &row))
		}
		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))
		return buf.Bytes()
	}
	upload := func(content []byte, cohort string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("cohort", cohort))
		if content != nil {
			fw, err := w.CreateFormFile("file", "students.xlsx")
			require.NoError(t, err)
			_, err = fw.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/admin/students/import", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+getToken(t, app, coach))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	content := workbook([][]interface{}{
		{"이름", "아이디", "이메일", "기수"},
		{"김하나", "hana", "hana@test.kr", ""},
		{"이두리", "duri", "not-an-email", "2기"},
		{"박세나", "coach", "sena@test.kr", ""},
	})

	assert.Equal(t, http.StatusBadRequest, upload(content, "x").Code)
	assert.Equal(t, http.StatusBadRequest, upload(nil, "5").Code)
	assert.Equal(t, http.StatusBadRequest, upload([]byte("not a spreadsheet"), "5").Code)

	rec := upload(content, "5")
	require.Equal(t, http.StatusOK, rec.Code)
	var res dashboard.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	require.Len(t, res.Created, 1)
	assert.Equal(t, "hana", res.Created[0].Username)
	assert.Equal(t, 5, res.Created[0].Cohort)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Errors, "email")
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Errors, "username")

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)
	assert.Equal(t, "hana@test.kr", sent[0].To[0].Address)
}
