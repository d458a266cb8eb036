package earning_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/earning"
	"github.com/trezcool/blogclass/core/student"
	testutil "github.com/trezcool/blogclass/tests"
)

func TestService(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, app.StudentRepo, "김블로그", "blogger", "blogger@test.kr", "", []string{student.RoleStudent}, true)
	other := testutil.CreateStudent(t, app.StudentRepo, "다른", "other", "other@test.kr", "", []string{student.RoleStudent}, true)
	coach := testutil.CreateStudent(t, app.StudentRepo, "코치", "coach", "coach@test.kr", "", []string{student.RoleAdminCoach}, true)

	record := func(s student.Student, month, source string, amount int64) earning.Earning {
		e, err := app.EarningSvc.Record(ctx, s, earning.NewEarning{Month: month, Source: source, Amount: amount})
		require.NoError(t, err)
		return e
	}
	e1 := record(st, "2024-03", earning.SourceAdsense, 1000)
	record(st, "2024-02", earning.SourceCoupang, 2000)
	record(other, "2024-03", earning.SourceSponsored, 5000)

	ledger, err := app.EarningSvc.Ledger(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Earnings, 2)
	assert.Equal(t, int64(3000), ledger.Total)

	rows, err := app.EarningSvc.Summary(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, other.ID, rows[0].StudentID)
	assert.Equal(t, int64(5000), rows[0].Total)

	rows, err = app.EarningSvc.Summary(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[1].Count)

	_, err = app.EarningSvc.Summary(ctx, "2024/03")
	assert.True(t, core.IsValidationError(err))

	assert.Equal(t, earning.ErrNotFound, app.EarningSvc.Delete(ctx, other, e1.ID))
	require.NoError(t, app.EarningSvc.Delete(ctx, coach, e1.ID))
	ledger, err = app.EarningSvc.Ledger(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Earnings, 1)
}
