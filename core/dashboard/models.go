package dashboard

import (
	"github.com/trezcool/blogclass/core/attendance"
	"github.com/trezcool/blogclass/core/consult"
	"github.com/trezcool/blogclass/core/growth"
	"github.com/trezcool/blogclass/core/points"
	"github.com/trezcool/blogclass/core/student"
	"github.com/trezcool/blogclass/core/vod"
)

// Home is everything the student home page shows.
type Home struct {
	Student              student.Student   `json:"student"`
	Tree                 growth.Tree       `json:"tree"`
	Attendance           attendance.Status `json:"attendance"`
	Standing             *points.Standing  `json:"standing"` // nil when not ranked (admins)
	Lectures             vod.Completion    `json:"lectures"`
	UpcomingConsultation *consult.Slot     `json:"upcoming_consultation"`
	OpenQuestions        int               `json:"open_questions"`
}

// Overview is the admin console's summary of the day.
type Overview struct {
	Day                 string `json:"day"`
	Students            int    `json:"students"`
	CheckedInToday      int    `json:"checked_in_today"`
	UnansweredQuestions int    `json:"unanswered_questions"`
	UpcomingBookings    int    `json:"upcoming_bookings"`
	TotalPosts          int    `json:"total_posts"`
}

// Report is the monthly attendance & points table of the active students.
type Report struct {
	Month string
	Days  []string // every day of Month
	Rows  []ReportRow
}

type ReportRow struct {
	Student  student.Student
	Attended map[string]bool // {day: true}
	Total    int
	Rank     int
}

// ImportRow is a student read from a spreadsheet. Row is the 1-based sheet row.
type ImportRow struct {
	Row     int
	Student student.NewStudent
}

type ImportError struct {
	Row    int               `json:"row"`
	Errors map[string]string `json:"errors"`
}

type ImportResult struct {
	Created []student.Student `json:"created"`
	Errors  []ImportError     `json:"errors"`
}
