package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateQuery_RendersKnownQueries(t *testing.T) {
	q, err := TemplateQuery("validate_partition", PartitionParams{AggregationTable: "agg", Date: "2026-07-28"})
	require.NoError(t, err)
	require.Contains(t, q, "agg")
	require.Contains(t, q, "2026-07-28")
}

func TestTemplateQuery_UnknownNameErrors(t *testing.T) {
	_, err := TemplateQuery("no_such_query", nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown query"))
}

func TestTemplateQuery_AggregateExpired(t *testing.T) {
	q, err := TemplateQuery("aggregate_expired", AggregateParams{AggregationTable: "agg", ExpiredThreshold: 1024})
	require.NoError(t, err)
	require.Contains(t, q, "1024")
}
