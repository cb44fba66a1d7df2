package services_test

import (
	"testing"

	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) *jql.Builder {
	t.Helper()
	dir, err := jql.NewDirectory(jql.Person{Key: "me", Identity: "Doe, Jane"})
	require.NoError(t, err)
	return jql.NewBuilder(dir)
}

func intPtr(v int) *int { return &v }
