// Package http provides the REST API server and its handlers.
//
// This file implements request decoding: bounded JSON bodies, request shapes
// and query parameter extraction.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"orcamento/internal/core"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 64 << 10

// Amount accepts a JSON number or a numeric string and keeps its text so
// parsing and rounding stay in core. null reads as empty.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	default:
		// Anything else is kept verbatim and rejected by decimal parsing
		// against the right field name.
		*a = Amount(data)
		return nil
	}
}

// ExpenseRequest is the body of POST /expenses.
type ExpenseRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	IsRecurring bool   `json:"isRecurring"`
}

func (req ExpenseRequest) Input() core.ExpenseInput {
	return core.ExpenseInput{
		ID:          req.ID,
		Description: req.Description,
		Amount:      string(req.Amount),
		Category:    req.Category,
		Date:        req.Date,
		IsRecurring: req.IsRecurring,
	}
}

// ExpensePatchRequest is the body of PUT /expenses/{id}. Absent fields are
// left unchanged.
type ExpensePatchRequest struct {
	Description *string `json:"description"`
	Amount      *Amount `json:"amount"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	IsRecurring *bool   `json:"isRecurring"`
}

func (req ExpensePatchRequest) Input() core.ExpensePatchInput {
	in := core.ExpensePatchInput{
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		IsRecurring: req.IsRecurring,
	}
	if req.Amount != nil {
		s := string(*req.Amount)
		in.Amount = &s
	}
	return in
}

// BudgetRequest is the body of PUT /budgets.
type BudgetRequest struct {
	Category string `json:"category"`
	Limit    Amount `json:"limit"`
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Oversized bodies, unknown fields and trailing data are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return core.NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}

func bodyError(err error) error {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return core.NewValidationError("body", fmt.Sprintf("must be at most %d bytes", MaxBodyBytes))
	case errors.Is(err, io.EOF):
		return core.NewValidationError("body", "is required")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return core.NewValidationError("body", "must be valid JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return core.NewValidationError(field, "has the wrong type")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return core.NewValidationError(name, "is not a known field")
	default:
		return core.NewValidationError("body", err.Error())
	}
}

// ExpenseFilterFromQuery extracts the list filters; parsing happens in core.
func ExpenseFilterFromQuery(query url.Values) core.ExpenseFilterInput {
	return core.ExpenseFilterInput{
		Category:  query.Get("category"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
		Search:    query.Get("search"),
		Page:      query.Get("page"),
		Limit:     query.Get("limit"),
	}
}
