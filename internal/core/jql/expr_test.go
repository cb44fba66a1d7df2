package jql_test

import (
	"testing"

	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Defect", "Defect"},
		{"RCCL_TRIAGE_PENDING", "RCCL_TRIAGE_PENDING"},
		{"v6.1", "v6.1"},
		{"P1-Gating", `"P1-Gating"`},
		{"2024-01-31", `"2024-01-31"`},
		{"Doe, Jane", `"Doe, Jane"`},
		{`a "b" \c`, `"a \"b\" \\c"`},
		{"empty", `"empty"`},
		{"ORDER", `"ORDER"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, jql.Quote(tt.in), tt.in)
	}
}

func TestString_Grouping(t *testing.T) {
	e := jql.And{
		jql.Eq("a", "1"),
		jql.Or{jql.Eq("b", "2"), jql.And{jql.Eq("c", "3"), jql.In("d", "x", "y")}},
	}
	assert.Equal(t, "a = 1 AND ((b = 2) OR (c = 3 AND d in (x, y)))", jql.String(e))
}
