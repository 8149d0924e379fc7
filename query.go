package tabload

import (
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

// Query selects rows from a table. Where conditions are equality checks
// combined with AND.
type Query struct {
	Table   string
	Columns []string
	Where   map[string]any
	OrderBy string
	Desc    bool
	Limit   int
}

// ParseWhere parses "column=value" pairs.
func ParseWhere(pairs []string) (map[string]any, error) {
	where := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, xerrors.Errorf("invalid condition %q, want column=value", p)
		}
		where[strings.TrimSpace(k)] = v
	}
	return where, nil
}

// build renders the query with quote for identifiers and placeholder for the
// n-th (1-based) argument.
func (q *Query) build(quote func(string) string, placeholder func(int) string) (string, []any, error) {
	if q.Table == "" {
		return "", nil, xerrors.New("query table is required")
	}

	cols := "*"
	if len(q.Columns) > 0 {
		qc := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			qc[i] = quote(c)
		}
		cols = strings.Join(qc, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT " + cols + " FROM " + quoteQualified(q.Table, quote))

	keys := make([]string, 0, len(q.Where))
	for k := range q.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for i, k := range keys {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, q.Where[k])
		b.WriteString(quote(k) + " = " + placeholder(len(args)))
	}

	if q.OrderBy != "" {
		b.WriteString(" ORDER BY " + quote(q.OrderBy))
		if q.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT " + placeholder(len(args)))
	}

	return b.String(), args, nil
}

func quoteQualified(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
