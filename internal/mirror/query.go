package mirror

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"orcamento/internal/core"
)

// snapshotStore answers report queries from a Snapshot, so offline reports
// go through the same report.Engine as the server.
type snapshotStore struct {
	snap *Snapshot
}

func (s snapshotStore) CategoryTotals(_ context.Context, month *core.Month) ([]core.CategoryTotal, error) {
	limits := make(map[core.Category]core.Money, len(s.snap.Budgets))
	for _, b := range s.snap.Budgets {
		limits[b.Category] = b.MonthlyLimit
	}

	byCat := map[core.Category]*core.CategoryTotal{}
	for _, e := range s.snap.Expenses {
		if month != nil && core.MonthOf(e.Date.Time) != *month {
			continue
		}
		t, ok := byCat[e.Category]
		if !ok {
			t = &core.CategoryTotal{Category: e.Category}
			if l, ok := limits[e.Category]; ok {
				t.Limit = &l
			}
			byCat[e.Category] = t
		}
		t.Total = t.Total.Add(e.Amount)
		t.Count++
	}

	totals := make([]core.CategoryTotal, 0, len(byCat))
	for _, t := range byCat {
		totals = append(totals, *t)
	}
	slices.SortFunc(totals, func(a, b core.CategoryTotal) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return strings.Compare(a.Category.String(), b.Category.String())
	})
	return totals, nil
}

func (s snapshotStore) MonthlyTotals(_ context.Context, from, to core.Date) ([]core.MonthlyTotal, error) {
	byMonth := map[string]*core.MonthlyTotal{}
	for _, e := range s.snap.Expenses {
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		key := core.MonthOf(e.Date.Time).String()
		t, ok := byMonth[key]
		if !ok {
			t = &core.MonthlyTotal{Month: key}
			byMonth[key] = t
		}
		t.Total = t.Total.Add(e.Amount)
		t.Count++
	}

	rows := make([]core.MonthlyTotal, 0, len(byMonth))
	for _, t := range byMonth {
		rows = append(rows, *t)
	}
	slices.SortFunc(rows, func(a, b core.MonthlyTotal) int {
		return strings.Compare(a.Month, b.Month)
	})
	return rows, nil
}

// filterExpenses applies f to the local expense set with the server's
// ordering and pagination.
func filterExpenses(all []core.Expense, f core.ExpenseFilter) core.ExpensePage {
	search := strings.ToLower(f.Search)
	matched := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if f.Category != nil && e.Category != *f.Category {
			continue
		}
		if f.StartDate != nil && e.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && f.EndDate.Before(e.Date) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		matched = append(matched, e)
	}

	slices.SortFunc(matched, func(a, b core.Expense) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	page := core.ExpensePage{
		Data:  []core.Expense{},
		Total: int64(len(matched)),
		Page:  f.Page,
		Limit: f.Limit,
	}
	if start := f.Offset(); start >= 0 && start < len(matched) {
		end := min(start+f.Limit, len(matched))
		page.Data = append(page.Data, matched[start:end]...)
	}
	return page
}

// isUnfiltered reports whether f selects every expense.
func isUnfiltered(f core.ExpenseFilter) bool {
	return f.Category == nil && f.StartDate == nil && f.EndDate == nil && f.Search == ""
}
