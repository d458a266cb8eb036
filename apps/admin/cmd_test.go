package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.App) {
	app := testutil.NewApp(t)
	return &commandLine{
		out:          ioutil.Discard,
		validate:     app.Validate,
		studentRepo:  app.StudentRepo,
		standings:    app.PointsSvc,
		dashboardSvc: app.DashboardSvc,
	}, app
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := runMigrationsFunc
	t.Cleanup(func() { runMigrationsFunc = orig })
	runMigrationsFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "coupons", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_addStudent(t *testing.T) {
	cli, app := setup(t)
	ctx := context.Background()

	mockPassword(t, "")
	assert.Equal(t, errHelp, cli.run([]string{"admin", "addstudent", "-name", "관리자", "-email", "owner@test.kr"}), "no password")
	assert.Equal(t, errHelp, cli.run([]string{"admin", "addstudent", "-email", "owner@test.kr"}), "no name")

	mockPassword(t, testutil.Password)
	assert.Error(t, cli.run([]string{"admin", "addstudent", "-name", "관리자", "-email", "not-an-email"}))

	require.NoError(t, cli.run([]string{"admin", "addstudent", "-name", "관리자", "-username", "owner", "-email", "Owner@test.kr", "-admin"}))
	owner, err := app.StudentRepo.GetStudent(ctx, student.GetFilter{Username: "owner"})
	require.NoError(t, err)
	assert.Equal(t, "owner@test.kr", owner.Email)
	assert.Equal(t, []string{student.RoleAdminOwner}, owner.Roles)
	assert.True(t, owner.Active())
	assert.NoError(t, owner.CheckPassword(testutil.Password))

	// updates the existing student
	mockPassword(t, "Other#Passw0rd!")
	require.NoError(t, cli.run([]string{"admin", "addstudent", "-name", "새이름", "-email", "owner@test.kr", "-cohort", "2"}))
	updated, err := app.StudentRepo.GetStudent(ctx, student.GetFilter{ID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, "새이름", updated.Name)
	assert.Equal(t, 2, updated.Cohort)
	assert.Equal(t, []string{student.RoleStudent}, updated.Roles)
	assert.NoError(t, updated.CheckPassword("Other#Passw0rd!"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, app := setup(t)

	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", testutil.Password, []string{student.RoleStudent}, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "student not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: student.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", st.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", "BLOGGER@test.kr"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		pwd := ""
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}
		mockPassword(t, pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			refreshed, err := app.StudentRepo.GetStudent(context.Background(), student.GetFilter{ID: st.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, st.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshed.CheckPassword(pwd))
		})
	}
}

func Test_commandLine_sheets(t *testing.T) {
	cli, app := setup(t)
	dir := t.TempDir()

	assert.Equal(t, errHelp, cli.run([]string{"admin", "importstudents"}))
	assert.Equal(t, errHelp, cli.run([]string{"admin", "exportattendance"}))
	assert.Error(t, cli.run([]string{"admin", "importstudents", "-file", filepath.Join(dir, "missing.xlsx")}))

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"name", "username", "email", "cohort"},
		{"김하나", "hana", "hana@test.kr", "3"},
		{"이두리", "duri", "duri@test.kr", ""},
	}
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(f.GetSheetName(0), cell, &row))
	}
	in := filepath.Join(dir, "students.xlsx")
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	require.NoError(t, cli.run([]string{"admin", "importstudents", "-file", in, "-cohort", "4"}))
	hana, err := app.StudentRepo.GetStudent(context.Background(), student.GetFilter{Username: "hana"})
	require.NoError(t, err)
	assert.Equal(t, 3, hana.Cohort)
	duri, err := app.StudentRepo.GetStudent(context.Background(), student.GetFilter{Username: "duri"})
	require.NoError(t, err)
	assert.Equal(t, 4, duri.Cohort)
	assert.Len(t, app.Mail.SentMessages(), 2)

	assert.Error(t, cli.run([]string{"admin", "exportattendance", "-month", "2024-13", "-out", filepath.Join(dir, "bad.xlsx")}))
	assert.NoFileExists(t, filepath.Join(dir, "bad.xlsx"))

	out := filepath.Join(dir, "attendance.xlsx")
	require.NoError(t, cli.run([]string{"admin", "exportattendance", "-month", "2024-03", "-out", out}))
	report, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer report.Close()
	header, err := report.GetRows("출석부")
	require.NoError(t, err)
	require.Len(t, header, 3)
	assert.Len(t, header[0], 4+31+3)
}
