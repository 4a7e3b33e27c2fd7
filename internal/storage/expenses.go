package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"orcamento/internal/core"
)

const expenseColumns = "id, description, amount_cents, category, date, is_recurring, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		date     dateValue
		created  timeValue
		updated  timeValue
	)
	if err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &category, &date, &e.IsRecurring, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Date = date.Date
	e.CreatedAt = created.Time
	e.UpdatedAt = updated.Time
	return e, nil
}

// UpsertExpense inserts e or, when e.ID already exists, overwrites its mutable
// fields in the same statement. created_at survives an overwrite. created
// reports whether a new row was inserted.
func (r *Repository) UpsertExpense(ctx context.Context, e core.Expense) (saved core.Expense, created bool, err error) {
	now := r.now()
	query := r.q(`INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			amount_cents = excluded.amount_cents,
			category = excluded.category,
			date = excluded.date,
			is_recurring = excluded.is_recurring,
			updated_at = excluded.updated_at
		RETURNING ` + expenseColumns)

	row := r.db.QueryRowContext(ctx, query,
		e.ID, e.Description, e.Amount.Cents, string(e.Category), e.Date.String(), e.IsRecurring,
		r.dialect.timeArg(now), r.dialect.timeArg(now))
	saved, err = scanExpense(row)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("upsert expense: %w", classify(err))
	}
	return saved, saved.CreatedAt.Equal(now), nil
}

// GetExpense returns the expense with the given id.
func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, &core.NotFoundError{Entity: "expense", Key: id}
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", classify(err))
	}
	return e, nil
}

// UpdateExpense applies only the fields set in p with a single UPDATE.
func (r *Repository) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	if p.IsEmpty() {
		return core.Expense{}, core.NewValidationError("fields", "at least one field must be supplied")
	}

	var (
		sets []string
		args []any
	)
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, p.Amount.Cents)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*p.Category))
	}
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, p.Date.String())
	}
	if p.IsRecurring != nil {
		sets = append(sets, "is_recurring = ?")
		args = append(args, *p.IsRecurring)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.dialect.timeArg(r.now()), id)

	query := r.q(`UPDATE expenses SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + expenseColumns)
	e, err := scanExpense(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, &core.NotFoundError{Entity: "expense", Key: id}
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", classify(err))
	}
	return e, nil
}

// DeleteExpense removes the expense, failing with NotFoundError if absent.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", classify(err))
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "expense", Key: id}
	}
	return nil
}

// ListExpenses returns one page of expenses matching f, newest first, and
// the total number of matches. Count and page are read in one transaction
// so Total always agrees with the rows returned.
func (r *Repository) ListExpenses(ctx context.Context, f core.ExpenseFilter) (core.ExpensePage, error) {
	if err := f.Validate(); err != nil {
		return core.ExpensePage{}, err
	}
	where, args := r.expenseWhere(f)

	tx, err := r.db.BeginTx(ctx, r.dialect.readTxOptions())
	if err != nil {
		return core.ExpensePage{}, fmt.Errorf("begin list expenses: %w", classify(err))
	}
	defer tx.Rollback()

	page := core.ExpensePage{Data: []core.Expense{}, Page: f.Page, Limit: f.Limit}
	row := tx.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM expenses`+where), args...)
	if err := row.Scan(&page.Total); err != nil {
		return core.ExpensePage{}, fmt.Errorf("count expenses: %w", classify(err))
	}
	if page.Total <= int64(f.Offset()) {
		return page, nil
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset())
	rows, err := tx.QueryContext(ctx, r.q(`SELECT `+expenseColumns+` FROM expenses`+where+
		` ORDER BY date DESC, created_at DESC, id DESC LIMIT ? OFFSET ?`), pageArgs...)
	if err != nil {
		return core.ExpensePage{}, fmt.Errorf("list expenses: %w", classify(err))
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return core.ExpensePage{}, fmt.Errorf("scan expense: %w", err)
		}
		page.Data = append(page.Data, e)
	}
	if err := rows.Err(); err != nil {
		return core.ExpensePage{}, fmt.Errorf("list expenses: %w", classify(err))
	}
	rows.Close()
	if err := tx.Commit(); err != nil {
		return core.ExpensePage{}, fmt.Errorf("commit list expenses: %w", classify(err))
	}
	return page, nil
}

// AllExpenses returns every expense ordered by date, oldest first.
func (r *Repository) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", classify(err))
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list all expenses: %w", classify(err))
	}
	return out, nil
}

func (r *Repository) expenseWhere(f core.ExpenseFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, string(*f.Category))
	}
	if f.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.EndDate.String())
	}
	if f.Search != "" {
		conds = append(conds, r.dialect.lowerExpr("description")+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
