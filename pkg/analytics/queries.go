package analytics

import (
	"bytes"
	"fmt"
	"text/template"
)

// Named query templates, one per operation spec.md §4.7 describes.
// Rendered with TemplateQuery; the placeholders match the field names
// of the matching *Params struct in client.go.
const (
	queryValidatePartition = `SELECT COUNT(*) FROM {{.AggregationTable}} WHERE source_table = '{{.Date}}'`

	queryPreAggregate = `
INSERT INTO {{.AggregationTable}}
SELECT couple_id, namespace,
       CAST(CEIL(expire_at / 86400) * 86400 AS Int64) AS expiration_date,
       'upload' AS operation,
       SUM(object_size) AS expired_size
FROM {{.SourceTable}}
WHERE op = 'upload'
GROUP BY couple_id, namespace, expiration_date
UNION ALL
SELECT couple_id, namespace,
       CAST(CEIL(expire_at / 86400) * 86400 AS Int64) AS expiration_date,
       'delete' AS operation,
       -SUM(object_size) AS expired_size
FROM {{.SourceTable}}
WHERE op = 'delete'
GROUP BY couple_id, namespace, expiration_date`

	queryAggregateExpired = `
SELECT couple_id
FROM (
  SELECT couple_id, SUM(expired_size) AS total_expired
  FROM {{.AggregationTable}}
  GROUP BY couple_id
)
WHERE total_expired >= {{.ExpiredThreshold}}`

	queryReplaceAggregateTable = `
INSERT INTO {{.AggregationTable}}_tmp
SELECT * FROM {{.AggregationTable}}
WHERE expiration_date > {{ ttlFor .CleanupTS }}`
)

var funcMap = template.FuncMap{
	// ttlFor is a placeholder the real renderer expands per-row in its
	// transport layer; exposed here so the template parses standalone.
	"ttlFor": func(m map[string]int64) string { return "couple_ttl_cleanup_ts[couple_id]" },
}

// TemplateQuery renders the named query ("validate_partition",
// "pre_aggregate", "aggregate_expired", "replace_aggregate_table")
// against params using text/template, matching spec.md §6's
// named-query vocabulary.
func TemplateQuery(name string, params any) (string, error) {
	var body string
	switch name {
	case "validate_partition":
		body = queryValidatePartition
	case "pre_aggregate":
		body = queryPreAggregate
	case "aggregate_expired":
		body = queryAggregateExpired
	case "replace_aggregate_table":
		body = queryReplaceAggregateTable
	default:
		return "", fmt.Errorf("analytics: unknown query %q", name)
	}

	tpl, err := template.New(name).Funcs(funcMap).Parse(body)
	if err != nil {
		return "", fmt.Errorf("analytics: parse query %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("analytics: render query %q: %w", name, err)
	}
	return buf.String(), nil
}
