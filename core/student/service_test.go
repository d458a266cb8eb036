package student_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func TestService_ResetPassword(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	sleeper := testutil.CreateStudent(t, app.StudentRepo, "휴면", "sleeper", "sleeper@test.kr", testutil.Password, []string{student.RoleStudent}, false)

	assert.Equal(t, student.ErrNotFound, app.StudentSvc.RequestPasswordReset(ctx, "nobody@test.kr"))
	assert.Equal(t, student.ErrNotFound, app.StudentSvc.RequestPasswordReset(ctx, sleeper.Email))
	require.NoError(t, app.StudentSvc.RequestPasswordReset(ctx, " BLOGGER@test.kr "))

	sent := app.Mail.SentMessages()
	require.Len(t, sent, 1)
	data, ok := sent[0].TemplateData.(map[string]interface{})
	require.True(t, ok)
	url, _ := data["URL"].(string)
	parts := strings.Split(url, "/")
	require.True(t, len(parts) > 2, url)
	uid, token := parts[len(parts)-2], parts[len(parts)-1]

	const newPwd = "N3w#Passphrase"
	reset := student.ResetPassword{UID: uid, Token: "bad-token", Password: newPwd, PasswordConfirm: newPwd}
	assert.True(t, core.IsValidationError(app.StudentSvc.ResetPassword(ctx, reset)))

	reset.Token = token
	require.NoError(t, app.StudentSvc.ResetPassword(ctx, reset))
	got, err := app.StudentSvc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword(newPwd))

	// tokens are single use
	assert.True(t, core.IsValidationError(app.StudentSvc.ResetPassword(ctx, reset)))
}

func TestService_Update(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", testutil.Password, []string{student.RoleStudent}, true)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", testutil.Password, []string{student.RoleStudent}, true)

	us := student.UpdateStudent{Email: other.Email}
	err := us.Validate(ctx, st, app.Validate, app.StudentSvc)
	assert.True(t, core.IsValidationError(err))

	cohort := 2
	us = student.UpdateStudent{Name: " 박블로그 ", Cohort: &cohort, BlogURL: "https://blog.naver.com/blogger"}
	require.NoError(t, us.Validate(ctx, st, app.Validate, app.StudentSvc))
	updated, err := app.StudentSvc.Update(ctx, st, us)
	require.NoError(t, err)
	assert.Equal(t, "박블로그", updated.Name)
	assert.Equal(t, st.Username, updated.Username)
	assert.Equal(t, st.Email, updated.Email)
	assert.Equal(t, 2, updated.Cohort)

	n, err := app.StudentSvc.Delete(ctx, st.ID, other.ID, "unknown")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = app.StudentSvc.Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaxRolePriority(t *testing.T) {
	assert.Equal(t, 30, student.MaxRolePriority([]string{student.RoleStudent, student.RoleAdminOwner}))
	assert.Equal(t, 22, student.MaxRolePriority([]string{student.RoleAdminCoach}))
	assert.Equal(t, 0, student.MaxRolePriority(nil))
}
