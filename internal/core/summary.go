package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Month is a calendar year+month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string. ok is false for anything else,
// including months outside 01..12.
func ParseMonth(s string) (m Month, ok bool) {
	if !monthPattern.MatchString(s) {
		return Month{}, false
	}
	y, _ := strconv.Atoi(s[:4])
	mo, _ := strconv.Atoi(s[5:])
	return Month{Year: y, Month: time.Month(mo)}, true
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns the first day of the month.
func (m Month) First() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// AddMonths shifts m by n months, which may be negative.
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Percent is a percentage rounded to one decimal place.
type Percent float64

// MarshalJSON always renders one decimal, so 8 becomes 8.0.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 1, 64)), nil
}

type (
	// CategoryTotal is the raw per-category aggregate read from storage.
	// Limit is nil when the category has no budget row.
	CategoryTotal struct {
		Category Category
		Total    Money
		Count    int64
		Limit    *Money
	}

	// CategorySummary is one row of Summary.ByCategory.
	CategorySummary struct {
		Category    Category `json:"category"`
		Total       Money    `json:"total"`
		Count       int64    `json:"count"`
		BudgetLimit Money    `json:"budget_limit"`
		BudgetPct   *Percent `json:"budget_pct"`
	}

	// Summary aggregates expenses for a month, or for all time when Month is empty.
	Summary struct {
		Month      string            `json:"month,omitempty"`
		GrandTotal Money             `json:"grand_total"`
		TxCount    int64             `json:"tx_count"`
		ByCategory []CategorySummary `json:"by_category"`
	}

	// MonthlyTotal is one point of the trailing 12-month trend.
	MonthlyTotal struct {
		Month string `json:"month"`
		Total Money  `json:"total"`
		Count int64  `json:"count"`
	}

	// CategoryBudget pairs a registry entry with its current limit, if any.
	CategoryBudget struct {
		Name         Category `json:"name"`
		MonthlyLimit *Money   `json:"monthly_limit"`
	}
)
