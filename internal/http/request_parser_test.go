package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"orcamento/internal/core"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"category":"Lazer","limit":1500.00}`, "1500.00"},
		{"integer", `{"category":"Lazer","limit":12}`, "12"},
		{"string", `{"category":"Lazer","limit":"99,90"}`, "99,90"},
		{"null", `{"category":"Lazer","limit":null}`, ""},
		{"bool kept verbatim", `{"category":"Lazer","limit":true}`, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/budgets", strings.NewReader(tt.body))
			var req BudgetRequest
			if err := DecodeJSON(httptest.NewRecorder(), r, &req); err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			if string(req.Limit) != tt.want {
				t.Errorf("Limit = %q, want %q", req.Limit, tt.want)
			}
		})
	}
}

func TestDecodeJSON_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", ``, "body"},
		{"malformed", `{"description":`, "body"},
		{"unknown field", `{"description":"x","colour":"red"}`, "colour"},
		{"wrong type", `{"description":42}`, "description"},
		{"trailing data", `{"description":"x"} {}`, "body"},
		{"too large", `{"description":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(tt.body))
			var req ExpenseRequest
			err := DecodeJSON(httptest.NewRecorder(), r, &req)
			if err == nil {
				t.Fatal("DecodeJSON() error = nil, want validation error")
			}
			fields := core.ValidationFields(err)
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", fields, tt.field)
			}
		})
	}
}

func TestExpensePatchRequest_Input(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/expenses/x", strings.NewReader(`{"amount":-5}`))
	var req ExpensePatchRequest
	if err := DecodeJSON(httptest.NewRecorder(), r, &req); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}

	in := req.Input()
	if in.Amount == nil || *in.Amount != "-5" {
		t.Fatalf("Amount = %v, want -5", in.Amount)
	}
	if in.Description != nil || in.Category != nil || in.Date != nil || in.IsRecurring != nil {
		t.Errorf("absent fields should stay nil: %+v", in)
	}
}

func TestExpenseFilterFromQuery(t *testing.T) {
	q := url.Values{
		"category":  {"Transporte"},
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"search":    {"bus"},
		"page":      {"2"},
		"limit":     {"10"},
	}
	got := ExpenseFilterFromQuery(q)
	want := core.ExpenseFilterInput{
		Category:  "Transporte",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Search:    "bus",
		Page:      "2",
		Limit:     "10",
	}
	if got != want {
		t.Errorf("ExpenseFilterFromQuery() = %+v, want %+v", got, want)
	}
}
