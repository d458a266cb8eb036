package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	// 15:00 UTC is midnight in Seoul
	assert.Equal(t, "2024-03-01", Day(time.Date(2024, 3, 1, 14, 59, 59, 0, time.UTC)))
	assert.Equal(t, "2024-03-02", Day(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)))
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		day  string
		n    int
		want string
	}{
		{"2024-02-28", 1, "2024-02-29"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-03-10", 0, "2024-03-10"},
	}
	for _, tt := range tests {
		got, err := AddDays(tt.day, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "AddDays(%s, %d)", tt.day, tt.n)
	}

	_, err := AddDays("2024-02-30", 1)
	assert.Error(t, err)
}

func TestMonthRange(t *testing.T) {
	first, last, err := MonthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", first)
	assert.Equal(t, "2024-02-29", last)

	for _, month := range []string{"", "2024-13", "2024-1", "24-01"} {
		_, _, err = MonthRange(month)
		assert.Error(t, err, month)
	}
}

func TestCurrentMonth(t *testing.T) {
	orig := NowFunc
	defer func() { NowFunc = orig }()

	NowFunc = func() time.Time { return time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC) }
	assert.Equal(t, "2024-04", CurrentMonth())
	assert.Equal(t, "2024-04-01", Today())
	assert.Equal(t, time.UTC, Now().Location())
}
