package cli

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/mirror"
)

// Budget utilization thresholds, in percent.
const (
	budgetWarnPct = 80
	budgetOverPct = 100
)

const trendBarWidth = 30

// RenderState describes where a view came from.
func RenderState(st mirror.State) string {
	if !st.Stale() {
		return SubtleStyle.Render("live data")
	}
	if st.FetchedAt.IsZero() {
		return FormatWarning("API unreachable, showing local changes that were never synced")
	}
	return FormatWarning("API unreachable, showing local data from " + st.FetchedAt.Local().Format(time.DateTime))
}

// RenderSummary renders the per-category breakdown with budget usage.
func RenderSummary(s core.Summary) string {
	period := "All time"
	if s.Month != "" {
		period = s.Month
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n",
		BoldStyle.Render(period),
		"total "+BoldStyle.Render(s.GrandTotal.String()),
		SubtleStyle.Render(fmt.Sprintf("(%d expenses)", s.TxCount)))

	if len(s.ByCategory) == 0 {
		b.WriteString(SubtleStyle.Render("No expenses in this period."))
		return b.String()
	}

	rows := make([][]string, 0, len(s.ByCategory))
	var alerts []string
	for _, c := range s.ByCategory {
		limit, used := "-", "-"
		if c.BudgetPct != nil {
			limit = c.BudgetLimit.String()
			used = fmt.Sprintf("%.1f%%", float64(*c.BudgetPct))
			switch pct := float64(*c.BudgetPct); {
			case pct >= budgetOverPct:
				alerts = append(alerts, ErrorStyle.Render(fmt.Sprintf("%s %s is over budget (%s)", ErrorIcon, c.Category, used)))
			case pct >= budgetWarnPct:
				alerts = append(alerts, FormatWarning(fmt.Sprintf("%s is at %s of its budget", c.Category, used)))
			}
		}
		rows = append(rows, []string{
			c.Category.String(),
			c.Total.String(),
			fmt.Sprint(c.Count),
			limit,
			used,
		})
	}
	b.WriteString(renderTable([]string{"CATEGORY", "TOTAL", "COUNT", "BUDGET", "USED"}, rows))
	for _, a := range alerts {
		b.WriteString("\n" + a)
	}
	return b.String()
}

// RenderTrend renders monthly totals as horizontal bars scaled to the largest month.
func RenderTrend(rows []core.MonthlyTotal) string {
	if len(rows) == 0 {
		return SubtleStyle.Render("No expenses in the last 12 months.")
	}

	var peak int64
	for _, r := range rows {
		peak = max(peak, r.Total.Cents)
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		n := 0
		if peak > 0 {
			n = int(r.Total.Cents * trendBarWidth / peak)
		}
		if n == 0 && r.Total.Cents > 0 {
			n = 1
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			r.Month,
			BarStyle.Render(strings.Repeat("█", n)+strings.Repeat(" ", trendBarWidth-n)),
			r.Total.String()))
	}
	return strings.Join(lines, "\n")
}

// RenderExpenses renders one page of expenses.
func RenderExpenses(page core.ExpensePage) string {
	if page.Total == 0 {
		return SubtleStyle.Render("No expenses found.")
	}

	rows := make([][]string, 0, len(page.Data))
	for _, e := range page.Data {
		recurring := ""
		if e.IsRecurring {
			recurring = "yes"
		}
		rows = append(rows, []string{
			shortID(e.ID),
			e.Date.String(),
			e.Category.String(),
			e.Amount.String(),
			e.Description,
			recurring,
		})
	}

	pages := int64(1)
	if page.Limit > 0 {
		pages = (page.Total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	return renderTable([]string{"ID", "DATE", "CATEGORY", "AMOUNT", "DESCRIPTION", "RECURRING"}, rows) +
		"\n" + SubtleStyle.Render(fmt.Sprintf("page %d of %d, %d expenses", page.Page, pages, page.Total))
}

// RenderBudgets lists every category with its limit, including categories
// without one.
func RenderBudgets(budgets []core.BudgetGoal) string {
	limits := make(map[core.Category]core.Money, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.MonthlyLimit
	}

	rows := make([][]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		limit := "not set"
		if m, ok := limits[c]; ok {
			limit = m.String()
		}
		rows = append(rows, []string{c.String(), limit})
	}
	return renderTable([]string{"CATEGORY", "MONTHLY LIMIT"}, rows)
}

// renderTable aligns cells with tabwriter before styling, so escape codes
// never affect column widths.
func renderTable(headers []string, rows [][]string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	lines[0] = TableHeaderStyle.Render(lines[0])
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
