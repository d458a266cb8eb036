package attendance

import (
	"sort"
	"time"
)

// CheckInPoints is awarded on every check-in.
const CheckInPoints = 10

// StreakBonuses are awarded once a streak reaches exactly the given number of days.
var StreakBonuses = map[int]int{
	3:  20,
	7:  50,
	14: 100,
}

// Record is a daily check-in. Day is the KST calendar day ("YYYY-MM-DD").
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Day         string    `json:"day"`
	CheckedInAt time.Time `json:"checked_in_at"` // UTC
	Streak      int       `json:"streak"`
	Points      int       `json:"points"` // base + bonus
}

// CheckInResult is returned on a successful check-in.
type CheckInResult struct {
	Record Record `json:"record"`
	Bonus  int    `json:"bonus"`
}

// Status sums up the attendance of a student as of Today.
type Status struct {
	Today         string     `json:"today"`
	CheckedIn     bool       `json:"checked_in"`
	CheckedInAt   *time.Time `json:"checked_in_at"`
	Streak        int        `json:"streak"`
	TotalDays     int        `json:"total_days"`
	NextMilestone int        `json:"next_milestone"` // 0 once every bonus was reached
	NextBonus     int        `json:"next_bonus"`
}

// DailyEntry is a line of the daily report: one per active student.
type DailyEntry struct {
	StudentID   string     `json:"student_id"`
	Name        string     `json:"name"`
	Cohort      int        `json:"cohort"`
	CheckedIn   bool       `json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at"`
	Streak      int        `json:"streak"`
}

// NextStreak returns the streak of a check-in made on day, given the student's latest record.
func NextStreak(latest *Record, yesterday string) int {
	if latest != nil && latest.Day == yesterday {
		return latest.Streak + 1
	}
	return 1
}

// BonusFor returns the bonus awarded on reaching streak.
func BonusFor(streak int) int {
	return StreakBonuses[streak]
}

// NextMilestone returns the first bonus streak strictly greater than streak, with its bonus.
func NextMilestone(streak int) (milestone, bonus int) {
	milestones := make([]int, 0, len(StreakBonuses))
	for m := range StreakBonuses {
		milestones = append(milestones, m)
	}
	sort.Ints(milestones)
	for _, m := range milestones {
		if m > streak {
			return m, StreakBonuses[m]
		}
	}
	return 0, 0
}
