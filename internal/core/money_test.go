package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"0.004", 0, true},
		{" 2.50 ", 250, true},
		{"120.50", 12050, true},
		{"-1", -100, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1e20", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "120.50", Money{Cents: 12050}.String())
	assert.Equal(t, "0.00", Money{}.String())
	assert.Equal(t, "0.07", Money{Cents: 7}.String())
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 150000}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1500.00}`, string(b))
	assert.Contains(t, string(b), "1500.00")

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12,34"`), &m))
	assert.Equal(t, int64(1234), m.Cents)

	require.NoError(t, json.Unmarshal([]byte(`99.999`), &m))
	assert.Equal(t, int64(10000), m.Cents)

	assert.Error(t, json.Unmarshal([]byte(`"x"`), &m))
}
