package storage

import (
	"context"
	"database/sql"
	"fmt"

	"orcamento/internal/core"
)

// CategoryTotals aggregates expenses per category, joined against the budget
// row of each category. A nil month covers all expenses. Rows are ordered by
// total descending, then category name.
func (r *Repository) CategoryTotals(ctx context.Context, month *core.Month) ([]core.CategoryTotal, error) {
	query := `SELECT e.category, CAST(SUM(e.amount_cents) AS BIGINT), COUNT(*), b.monthly_limit_cents
		FROM expenses e
		LEFT JOIN budgets b ON b.category = e.category`
	var args []any
	if month != nil {
		query += ` WHERE e.date >= ? AND e.date < ?`
		args = append(args, month.First().String(), month.AddMonths(1).First().String())
	}
	query += ` GROUP BY e.category, b.monthly_limit_cents
		ORDER BY CAST(SUM(e.amount_cents) AS BIGINT) DESC, e.category`

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", classify(err))
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var (
			ct       core.CategoryTotal
			category string
			limit    sql.NullInt64
		)
		if err := rows.Scan(&category, &ct.Total.Cents, &ct.Count, &limit); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Category = core.Category(category)
		if limit.Valid {
			ct.Limit = &core.Money{Cents: limit.Int64}
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category totals: %w", classify(err))
	}
	return out, nil
}

// MonthlyTotals returns one row per month with expenses dated in [from, to),
// ascending by month.
func (r *Repository) MonthlyTotals(ctx context.Context, from, to core.Date) ([]core.MonthlyTotal, error) {
	month := r.dialect.monthExpr("date")
	query := `SELECT ` + month + ` AS month, CAST(SUM(amount_cents) AS BIGINT), COUNT(*)
		FROM expenses
		WHERE date >= ? AND date < ?
		GROUP BY ` + month + `
		ORDER BY ` + month

	rows, err := r.db.QueryContext(ctx, r.q(query), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", classify(err))
	}
	defer rows.Close()

	out := []core.MonthlyTotal{}
	for rows.Next() {
		var mt core.MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Total.Cents, &mt.Count); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", classify(err))
	}
	return out, nil
}
