package http

import (
	"net/http"
	"sync/atomic"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := s.expenses.List(r.Context(), ExpenseFilterFromQuery(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleUpsertExpense creates an expense, or replaces it when the body
// carries an id that already exists.
func (s *Server) handleUpsertExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, created, err := s.expenses.Save(r.Context(), req.Input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesSaved, 1)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewJSONResponse().
		Status(status).
		Header("Location", "/expenses/"+e.ID).
		Body(e).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpensePatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.expenses.Update(r.Context(), r.PathValue("id"), req.Input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)
	writeNoContent(w)
}
