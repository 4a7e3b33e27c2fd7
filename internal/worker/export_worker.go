package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"orcamento/internal/amqp"
	"orcamento/internal/core"
	"orcamento/internal/log"
	"orcamento/internal/sheets"
)

// Store is the read side the exporter needs.
type Store interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	AllExpenses(ctx context.Context) ([]core.Expense, error)
	ListBudgets(ctx context.Context) ([]core.BudgetGoal, error)
}

// Consumer delivers change events. *amqp.Client satisfies it.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ExportWorker mirrors committed changes from the store into a spreadsheet.
// Events only carry keys; rows are always re-read so a stale event never
// overwrites newer data.
type ExportWorker struct {
	store    Store
	exporter sheets.Exporter
	logger   *log.Logger
}

func NewExportWorker(store Store, exporter sheets.Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle exports one change event. A returned error asks for redelivery.
func (w *ExportWorker) Handle(ctx context.Context, ev core.ChangeEvent) error {
	w.logger.DebugContext(ctx, "Processing change event",
		log.FieldEntity, ev.Entity,
		log.FieldAction, ev.Action,
		log.FieldKey, ev.Key)

	switch ev.Entity {
	case core.EntityExpense:
		return w.handleExpense(ctx, ev)
	case core.EntityBudget:
		return w.exportBudgets(ctx)
	default:
		w.logger.WarnContext(ctx, "Ignoring event for unknown entity", log.FieldEntity, ev.Entity)
		return nil
	}
}

func (w *ExportWorker) handleExpense(ctx context.Context, ev core.ChangeEvent) error {
	if ev.Action == core.ActionDeleted {
		if err := w.exporter.DeleteExpense(ctx, ev.Key); err != nil {
			return fmt.Errorf("export expense delete: %w", err)
		}
		w.logger.InfoContext(ctx, "Expense removed from sheet", log.FieldExpenseID, ev.Key)
		return nil
	}

	e, err := w.store.GetExpense(ctx, ev.Key)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published; the delete event follows.
		w.logger.InfoContext(ctx, "Expense no longer exists, skipping export", log.FieldExpenseID, ev.Key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read expense: %w", err)
	}

	if err := w.exporter.UpsertExpense(ctx, e); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}
	w.logger.InfoContext(ctx, "Expense exported",
		log.FieldExpenseID, e.ID,
		log.FieldAmount, e.Amount.Cents,
		log.FieldCategory, e.Category)
	return nil
}

func (w *ExportWorker) exportBudgets(ctx context.Context) error {
	budgets, err := w.store.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("read budgets: %w", err)
	}
	if err := w.exporter.ReplaceBudgets(ctx, budgets); err != nil {
		return fmt.Errorf("export budgets: %w", err)
	}
	w.logger.InfoContext(ctx, "Budgets exported", "count", len(budgets))
	return nil
}

// FullResync rewrites both sheets from the store. It repairs anything missed
// while the worker was down and compacts rows cleared by deletes.
func (w *ExportWorker) FullResync(ctx context.Context) error {
	start := time.Now()

	expenses, err := w.store.AllExpenses(ctx)
	if err != nil {
		return fmt.Errorf("read expenses: %w", err)
	}
	if err := w.exporter.ReplaceExpenses(ctx, expenses); err != nil {
		return fmt.Errorf("export expenses: %w", err)
	}
	if err := w.exportBudgets(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Full resync completed",
		log.FieldOperation, log.OpExport,
		"expenses", len(expenses),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Run performs a startup resync, then consumes events and resyncs every
// interval until ctx is cancelled. A zero interval disables periodic resync.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	if err := w.FullResync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup resync failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Consume(ctx, w.Handle)
	})

	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.FullResync(ctx); err != nil {
						w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
					}
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
