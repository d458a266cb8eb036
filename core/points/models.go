package points

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/blogclass/core"
)

// Point sources
const (
	SourceAttendance  = "attendance"
	SourceStreakBonus = "streak_bonus"
	SourcePost        = "post"
	SourceLecture     = "vod"
	SourceAssignment  = "assignment"
	SourceManual      = "manual"
)

// Entry is a line of the points ledger. A student's points are the sum of their entries.
// Automatic awards (every source but SourceManual) are unique per (StudentID, Source, SourceID).
type Entry struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Amount    int       `json:"amount"`
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewEntry returns a ledger Entry ready to be saved.
func NewEntry(studentID string, amount int, source, sourceID, reason string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Amount:    amount,
		Source:    source,
		SourceID:  sourceID,
		Reason:    reason,
		CreatedAt: core.Now(),
	}
}

// Grant is a manual adjustment made by an admin; Amount may be negative.
type Grant struct {
	Amount int    `json:"amount" validate:"required,ne=0"`
	Reason string `json:"reason" validate:"required,notblank,max=200"`
}

func (g *Grant) Clean() {
	g.Reason = core.CleanString(g.Reason)
}

// Standing is a student's position on the leaderboard.
// Students with the same points share the same Rank.
type Standing struct {
	Rank      int    `json:"rank"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Cohort    int    `json:"cohort"`
	Points    int    `json:"points"`
}

// Rank assigns competition ranks ("1224") to standings sorted by points, highest first.
func Rank(standings []Standing) []Standing {
	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points {
			standings[i].Rank = standings[i-1].Rank
		} else {
			standings[i].Rank = i + 1
		}
	}
	return standings
}
