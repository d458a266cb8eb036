package earning

import (
	"sort"
	"time"

	"github.com/trezcool/blogclass/core"
)

// Earning sources
const (
	SourceAdsense   = "adsense"
	SourceCoupang   = "coupang"
	SourceSponsored = "sponsored"
	SourceOther     = "other"
)

var Sources = []string{SourceAdsense, SourceCoupang, SourceSponsored, SourceOther}

// Earning is blog revenue declared by a student for a month, in KRW.
type Earning struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Month     string    `json:"month"` // YYYY-MM
	Source    string    `json:"source"`
	Amount    int64     `json:"amount"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewEarning struct {
	Month  string `json:"month" validate:"required,month"`
	Source string `json:"source" validate:"required,oneof=adsense coupang sponsored other"`
	Amount int64  `json:"amount" validate:"gte=0"`
	Memo   string `json:"memo" validate:"max=500"`
}

func (ne *NewEarning) Clean() {
	ne.Month = core.CleanString(ne.Month)
	ne.Source = core.CleanString(ne.Source, true /* lower */)
	ne.Memo = core.CleanString(ne.Memo)
}

type MonthTotal struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}

// Ledger lists the earnings of a student with their totals.
type Ledger struct {
	Earnings []Earning       `json:"earnings"`
	Total    int64            `json:"total"`
	Monthly  []MonthTotal     `json:"monthly"` // newest month first
	BySource map[string]int64 `json:"by_source"`
}

// NewLedger sums up earnings.
func NewLedger(earnings []Earning) Ledger {
	if earnings == nil {
		earnings = []Earning{}
	}
	ledger := Ledger{Earnings: earnings, Monthly: []MonthTotal{}, BySource: make(map[string]int64)}
	monthly := make(map[string]int64)
	for _, e := range earnings {
		ledger.Total += e.Amount
		ledger.BySource[e.Source] += e.Amount
		monthly[e.Month] += e.Amount
	}
	for month, total := range monthly {
		ledger.Monthly = append(ledger.Monthly, MonthTotal{Month: month, Total: total})
	}
	sort.Slice(ledger.Monthly, func(i, j int) bool { return ledger.Monthly[i].Month > ledger.Monthly[j].Month })
	return ledger
}

// SummaryRow is the total earned by a student.
type SummaryRow struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Cohort    int    `json:"cohort"`
	Count     int    `json:"count"`
	Total     int64  `json:"total"`
}
