// Package report derives summary and trend views from stored expenses and budgets.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
	"orcamento/internal/log"
)

// Store is the read side the engine needs from storage.
type Store interface {
	CategoryTotals(ctx context.Context, month *core.Month) ([]core.CategoryTotal, error)
	MonthlyTotals(ctx context.Context, from, to core.Date) ([]core.MonthlyTotal, error)
}

// TrendMonths is the length of the trailing trend window, current month included.
const TrendMonths = 12

var hundred = decimal.NewFromInt(100)

// Engine computes reports. Nothing is cached; every call reads the store.
type Engine struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for the trend window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger. Records carry the report component.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentReport) }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, logger: log.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary aggregates expenses for month ("YYYY-MM"). An empty or malformed
// month covers every expense.
func (e *Engine) Summary(ctx context.Context, month string) (core.Summary, error) {
	var filter *core.Month
	if month != "" {
		if m, ok := core.ParseMonth(month); ok {
			filter = &m
		} else {
			e.logger.WarnContext(ctx, "Ignoring malformed summary month", log.FieldMonth, month)
		}
	}

	totals, err := e.store.CategoryTotals(ctx, filter)
	if err != nil {
		return core.Summary{}, fmt.Errorf("load category totals: %w", err)
	}

	s := Build(totals)
	if filter != nil {
		s.Month = filter.String()
	}
	return s, nil
}

// Build projects raw per-category aggregates into a Summary. Grand totals are
// the sums of the breakdown rows.
func Build(totals []core.CategoryTotal) core.Summary {
	s := core.Summary{ByCategory: make([]core.CategorySummary, 0, len(totals))}
	for _, t := range totals {
		row := core.CategorySummary{
			Category: t.Category,
			Total:    t.Total,
			Count:    t.Count,
		}
		if t.Limit != nil {
			row.BudgetLimit = *t.Limit
			row.BudgetPct = BudgetPct(t.Total, *t.Limit)
		}
		s.GrandTotal = s.GrandTotal.Add(t.Total)
		s.TxCount += t.Count
		s.ByCategory = append(s.ByCategory, row)
	}
	return s
}

// BudgetPct returns total/limit*100 rounded to one decimal place, or nil when
// the limit is zero.
func BudgetPct(total, limit core.Money) *core.Percent {
	if limit.Cents <= 0 {
		return nil
	}
	pct := decimal.NewFromInt(total.Cents).
		Mul(hundred).
		Div(decimal.NewFromInt(limit.Cents)).
		Round(1)
	p := core.Percent(pct.InexactFloat64())
	return &p
}

// MonthlyTrend returns totals for the trailing TrendMonths calendar months
// ending with the current one, ascending. Months without expenses are omitted.
func (e *Engine) MonthlyTrend(ctx context.Context) ([]core.MonthlyTotal, error) {
	from, to := TrendWindow(e.now())
	rows, err := e.store.MonthlyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load monthly totals: %w", err)
	}
	return rows, nil
}

// TrendWindow returns the half-open date range [from, to) of the trend that
// contains now.
func TrendWindow(now time.Time) (from, to core.Date) {
	current := core.MonthOf(now)
	return current.AddMonths(-(TrendMonths - 1)).First(), current.AddMonths(1).First()
}
