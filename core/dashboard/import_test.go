package dashboard_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
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
	return &buf
}

func TestService_Import(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", "", []string{student.RoleStudent}, true)

	_, err := app.DashboardSvc.Import(ctx, workbook(t, []interface{}{"email"}), 1)
	assert.True(t, core.IsValidationError(err), "no name column")

	res, err := app.DashboardSvc.Import(ctx, workbook(t,
		[]interface{}{"이름", "아이디", "이메일", "전화번호", "블로그"},
		[]interface{}{"이하나", "hana", "hana@test.kr", "010-1234-5678", "https://blog.naver.com/hana"},
		[]interface{}{},
		[]interface{}{"중복", "blogger", "", "", ""},
		[]interface{}{"", "noname", "", "", ""},
		[]interface{}{"아이디없음", "", "", "", ""},
	), 7)
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	hana := res.Created[0]
	assert.Equal(t, 7, hana.Cohort)
	assert.Equal(t, "010-1234-5678", hana.Phone)
	assert.Equal(t, []string{student.RoleStudent}, hana.Roles)
	assert.True(t, hana.Active())

	require.Len(t, res.Errors, 3)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Equal(t, student.ErrUsernameExists.Error(), res.Errors[0].Errors["username"])
	assert.Equal(t, 5, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Errors, "name")
	assert.Equal(t, 6, res.Errors[2].Row)
	assert.Contains(t, res.Errors[2].Errors, "username")

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hana@test.kr", sent[0].To[0].Address)
}

func TestService_Home(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", "", []string{student.RoleStudent}, true)

	home, err := app.DashboardSvc.Home(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 1, home.Tree.Level.Level)
	assert.False(t, home.Attendance.CheckedIn)
	require.NotNil(t, home.Standing)
	assert.Equal(t, 1, home.Standing.Rank)
	assert.Equal(t, 0, home.Lectures.Total)
	assert.Nil(t, home.UpcomingConsultation)
	assert.Zero(t, home.OpenQuestions)

	ov, err := app.DashboardSvc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ov.Students)
	assert.Zero(t, ov.CheckedInToday)
}
