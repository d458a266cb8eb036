package growth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func TestService_Submit(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", "", []string{student.RoleStudent}, true)
	np := growth.NewPost{URL: "https://blog.naver.com/blogger/1", Title: "첫 포스팅"}

	p, err := app.GrowthSvc.Submit(ctx, st, np)
	require.NoError(t, err)
	assert.Equal(t, st.ID, p.StudentID)

	_, err = app.GrowthSvc.Submit(ctx, st, np)
	assert.Equal(t, growth.ErrPostExists, err)

	// deleting & resubmitting the same post does not earn points again
	for i := 0; i < 3; i++ {
		require.NoError(t, app.GrowthSvc.Delete(ctx, st, p.ID))
		p, err = app.GrowthSvc.Submit(ctx, st, np)
		require.NoError(t, err)
	}

	refreshed, err := app.StudentSvc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.PostCount)
	assert.Equal(t, growth.PostPoints, refreshed.Points)

	entries, err := app.PointsSvc.History(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// another post is rewarded
	_, err = app.GrowthSvc.Submit(ctx, st, growth.NewPost{URL: "https://blog.naver.com/blogger/2", Title: "두번째"})
	require.NoError(t, err)
	refreshed, err = app.StudentSvc.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.PostCount)
	assert.Equal(t, 2*growth.PostPoints, refreshed.Points)
}
