package storage

import (
	"context"
	"fmt"

	"orcamento/internal/core"
)

const budgetColumns = "category, monthly_limit_cents, created_at, updated_at"

func scanBudget(row rowScanner) (core.BudgetGoal, error) {
	var (
		b        core.BudgetGoal
		category string
		created  timeValue
		updated  timeValue
	)
	if err := row.Scan(&category, &b.MonthlyLimit.Cents, &created, &updated); err != nil {
		return core.BudgetGoal{}, err
	}
	b.Category = core.Category(category)
	b.CreatedAt = created.Time
	b.UpdatedAt = updated.Time
	return b, nil
}

// ListBudgets returns every budget ordered by category name.
func (r *Repository) ListBudgets(ctx context.Context) ([]core.BudgetGoal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", classify(err))
	}
	defer rows.Close()

	out := []core.BudgetGoal{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", classify(err))
	}
	return out, nil
}

// UpsertBudget creates or replaces the limit for b.Category.
func (r *Repository) UpsertBudget(ctx context.Context, b core.BudgetGoal) (core.BudgetGoal, error) {
	now := r.dialect.timeArg(r.now())
	query := r.q(`INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET
			monthly_limit_cents = excluded.monthly_limit_cents,
			updated_at = excluded.updated_at
		RETURNING ` + budgetColumns)

	saved, err := scanBudget(r.db.QueryRowContext(ctx, query, string(b.Category), b.MonthlyLimit.Cents, now, now))
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("upsert budget: %w", classify(err))
	}
	return saved, nil
}

// DeleteBudget removes the budget for category. Deleting a category that has
// no budget is not an error.
func (r *Repository) DeleteBudget(ctx context.Context, category core.Category) error {
	if _, err := core.ParseCategory(string(category)); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.q(`DELETE FROM budgets WHERE category = ?`), string(category)); err != nil {
		return fmt.Errorf("delete budget: %w", classify(err))
	}
	return nil
}
